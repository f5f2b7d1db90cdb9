package sse

import "strings"

// StreamFault is returned by Accumulate when the stream reported an in-band
// error. Fragments already pushed to the sink stay there.
type StreamFault struct {
	Message string
}

func (e *StreamFault) Error() string { return e.Message }

// Sink receives content fragments in arrival order.
type Sink interface {
	Append(fragment string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(fragment string)

func (f SinkFunc) Append(fragment string) { f(fragment) }

// Accumulate drains dec, pushing every fragment to sink as it arrives, and
// returns the concatenated content. On a stream fault or read error the
// partial content is discarded and only the error is returned.
func Accumulate(dec *Decoder, sink Sink) (string, error) {
	var b strings.Builder
	for ev, err := range dec.Events() {
		if err != nil {
			return "", err
		}
		switch ev.Type {
		case EventDelta:
			b.WriteString(ev.Content)
			if sink != nil {
				sink.Append(ev.Content)
			}
		case EventError:
			return "", &StreamFault{Message: ev.Message}
		case EventDone:
			return b.String(), nil
		}
	}
	return b.String(), nil
}
