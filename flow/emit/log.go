// Package emit provides event emission and observability for workflow execution.
package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter implements Emitter by writing structured log output to a
// writer, in either human-readable text or newline-delimited JSON.
//
// Example text output:
//
//	[node_started] session=sess-1 execution=exec-1 node=classify
//
// Example JSON output:
//
//	{"session":"sess-1","execution":"exec-1","node":"classify","msg":"node_started","meta":null}
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer. jsonMode selects
// JSON lines over text formatting.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes a single event.
func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
	} else {
		l.emitText(event)
	}
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		Session   string                 `json:"session"`
		Execution string                 `json:"execution"`
		Node      string                 `json:"node"`
		Msg       string                 `json:"msg"`
		Meta      map[string]interface{} `json:"meta"`
	}{
		Session:   event.SessionID,
		Execution: event.ExecutionID,
		Node:      event.NodeName,
		Msg:       event.Msg,
		Meta:      event.Meta,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] session=%s execution=%s node=%s",
		event.Msg, event.SessionID, event.ExecutionID, event.NodeName)

	if len(event.Meta) > 0 {
		metaJSON, err := json.Marshal(event.Meta)
		if err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

// EmitBatch writes each event in order. Provided for interface compliance
// and to let callers batch writes; LogEmitter has no internal buffer so
// there is no efficiency difference over repeated Emit calls beyond
// avoiding per-call overhead at the caller.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, event := range events {
		l.Emit(event)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes synchronously and buffers nothing.
// Wrap writer in a bufio.Writer and flush that directly if buffering is
// desired.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}
