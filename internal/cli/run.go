package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqlitesink "github.com/saleem-mirza/serilog-sinks-sqlite"
	"github.com/saleem-mirza/serilog-sinks-sqlite/event"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pump log records from stdin into the sink",
		Long: `Read newline-delimited log records from stdin and persist them.

Each line is either a JSON record
  {"timestamp":"2024-01-02T03:04:05Z","level":"Warning","message":"disk {Disk} at {Pct}","exception":"...","properties":{"Disk":"sda","Pct":91}}
or plain text, which is stored as an Information event.

The pump drains and closes the sink on EOF or SIGINT.

Example:
  tail -f app.jsonl | sqlitelog run --config sink.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPump(rootOpts, cmd)
		},
	}

	return cmd
}

func runPump(opts *RootOptions, cmd *cobra.Command) error {
	if opts.Config == "" {
		return WrapExitError(ExitCommandError, "missing --config", nil)
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	dbPath, sinkOpts, err := cfg.SinkOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to apply config", err)
	}
	sinkOpts = append(sinkOpts, sqlitesink.WithLogger(logger))

	sink, err := sqlitesink.New(dbPath, sinkOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start sink", err)
	}

	// SIGINT/SIGTERM stop intake; the sink then drains on Close.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	emitted := pumpLines(ctx, cmd.InOrStdin(), sink)

	if err := sink.Close(); err != nil {
		return WrapExitError(ExitFailure, "failed to close sink", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "emitted %d events, dropped %d\n", emitted, sink.Dropped())
	return nil
}

// pumpLines reads records until EOF or context cancellation and emits
// them into the sink. Returns the number of events emitted.
func pumpLines(ctx context.Context, in io.Reader, sink *sqlitesink.Sink) int {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	emitted := 0
	for {
		select {
		case <-ctx.Done():
			return emitted
		case line, ok := <-lines:
			if !ok {
				return emitted
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			sink.Emit(parseLine(line))
			emitted++
		}
	}
}

// lineRecord is the JSON shape accepted on stdin.
type lineRecord struct {
	Timestamp  string         `json:"timestamp"`
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	Exception  string         `json:"exception"`
	Properties map[string]any `json:"properties"`
}

// parseLine converts one input line to a log event. Non-JSON lines and
// malformed records fall back to an Information event carrying the raw
// line.
func parseLine(line string) event.LogEvent {
	if !strings.HasPrefix(strings.TrimSpace(line), "{") {
		return plainEvent(line)
	}

	var rec lineRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return plainEvent(line)
	}

	ev := event.LogEvent{
		Timestamp:       time.Now(),
		Level:           event.LevelInformation,
		MessageTemplate: rec.Message,
		Exception:       rec.Exception,
		Properties:      event.CaptureProperties(rec.Properties),
	}
	if rec.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
			ev.Timestamp = ts
		}
	}
	if rec.Level != "" {
		if level, err := event.ParseLevel(rec.Level); err == nil {
			ev.Level = level
		}
	}
	return ev
}

func plainEvent(line string) event.LogEvent {
	return event.LogEvent{
		Timestamp:       time.Now(),
		Level:           event.LevelInformation,
		MessageTemplate: line,
	}
}
