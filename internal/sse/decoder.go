// Package sse decodes chat-completion Server-Sent-Events streams into
// content deltas.
package sse

import (
	"bufio"
	"io"
	"iter"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultFaultMessage is carried by the error event raised when the stream
// reports an in-band failure.
const DefaultFaultMessage = "Error processing correction. Please try again."

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
	errorMarker  = `"finish_reason":"error"`
	deltaPath    = "choices.0.delta.content"
)

// EventType tags an Event.
type EventType int

const (
	EventDelta EventType = iota
	EventDone
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventDelta:
		return "delta"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one decoded stream event. Content is set for EventDelta, Message
// for EventError.
type Event struct {
	Type    EventType
	Content string
	Message string
}

// ReadError wraps a failure of the underlying stream while decoding.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "sse: read stream: " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// Decoder turns an SSE byte stream into Events. It is pull based and not
// restartable: once it has returned EventDone or EventError every further
// call to Next returns io.EOF.
type Decoder struct {
	scanner      *bufio.Scanner
	faultMessage string
	logger       *slog.Logger

	sawSentinel bool
	finished    bool
	skipped     int
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithFaultMessage sets the message carried by in-band error events.
func WithFaultMessage(msg string) DecoderOption {
	return func(d *Decoder) {
		if strings.TrimSpace(msg) != "" {
			d.faultMessage = msg
		}
	}
}

// WithLogger sets the logger malformed lines are reported to.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder reads r through a stateful UTF-8 decoder, so a rune split across
// two reads is reassembled, and splits the text into lines that may span any
// number of reads.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	text := transform.NewReader(r, unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(text)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	d := &Decoder{
		scanner:      scanner,
		faultMessage: DefaultFaultMessage,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Next returns the next event. A failed read of the underlying stream is
// returned as *ReadError and ends the decoder.
func (d *Decoder) Next() (Event, error) {
	if d.finished {
		return Event{}, io.EOF
	}
	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
		if payload == doneSentinel {
			d.sawSentinel = true
			continue
		}
		if strings.Contains(payload, errorMarker) {
			d.finished = true
			d.logger.Warn("stream reported an error", "payload", truncate(payload, 512))
			return Event{Type: EventError, Message: d.faultMessage}, nil
		}
		if !gjson.Valid(payload) {
			d.skipped++
			d.logger.Warn("skipping malformed stream line", "payload", truncate(payload, 512))
			continue
		}
		if content := gjson.Get(payload, deltaPath).String(); content != "" {
			return Event{Type: EventDelta, Content: content}, nil
		}
	}
	d.finished = true
	if err := d.scanner.Err(); err != nil {
		return Event{}, &ReadError{Err: err}
	}
	if !d.sawSentinel {
		d.logger.Debug("stream ended without sentinel")
	}
	return Event{Type: EventDone}, nil
}

// Events iterates the remaining events. The sequence ends after EventDone,
// EventError or a read error.
func (d *Decoder) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(ev, err) || err != nil {
				return
			}
		}
	}
}

// SawSentinel reports whether a [DONE] line has been read.
func (d *Decoder) SawSentinel() bool { return d.sawSentinel }

// Skipped reports how many malformed data lines were dropped.
func (d *Decoder) Skipped() int { return d.skipped }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
