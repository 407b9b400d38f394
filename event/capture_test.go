package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_Scalars(t *testing.T) {
	assert.Equal(t, Null(), Capture(nil))
	assert.Equal(t, Str("x"), Capture("x"))
	assert.Equal(t, Bool(true), Capture(true))
	assert.Equal(t, Int(7), Capture(7))
	assert.Equal(t, Int(7), Capture(int64(7)))
	assert.Equal(t, Float(2.5), Capture(2.5))
}

func TestCapture_JSONNumber(t *testing.T) {
	assert.Equal(t, Int(42), Capture(json.Number("42")))
	assert.Equal(t, Float(1.25), Capture(json.Number("1.25")))
}

func TestCapture_Composite(t *testing.T) {
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"tags":["a",1],"ctx":{"ok":true}}`), &decoded))

	props := CaptureProperties(decoded)
	assert.Equal(t, Sequence{Str("a"), Float(1)}, props["tags"])
	assert.Equal(t, Dictionary{"ok": Bool(true)}, props["ctx"])
}

func TestCapture_ValuePassesThrough(t *testing.T) {
	v := Structure{TypeTag: "T"}
	assert.Equal(t, v, Capture(v))
}

func TestCaptureProperties_Empty(t *testing.T) {
	assert.Nil(t, CaptureProperties(nil))
	assert.Nil(t, CaptureProperties(map[string]any{}))
}
