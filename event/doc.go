// Package event defines the log event model accepted by the sink: the
// severity scale, the event record itself, and the recursive property
// value variant together with its JSON encoding and message-template
// rendering.
//
// Values form a sealed hierarchy - only Scalar, Sequence, Dictionary and
// Structure implement the Value interface. This keeps the encoder total:
// every value a producer can construct has a defined JSON form.
package event
