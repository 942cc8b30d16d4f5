// Package sse decodes chunked server-sent event streams into typed
// protocol events. The decoder owns reassembly: chunks arrive in order
// but at arbitrary sizes, possibly split mid-line or mid-character, and
// decoding a stream must produce the same event sequence however it was
// chunked.
package sse

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"zchat/internal/logger"
	"zchat/pkg/types"
)

// EventType discriminates the protocol events a stream can carry.
type EventType string

// Recognized event names. Frames with no event line default to message.
const (
	EventMessage EventType = "message"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one decoded frame. Data holds the joined data payload; Meta
// is populated for done events only.
type Event struct {
	Type EventType
	Data string
	Meta types.StreamMeta
}

// Decoder turns a raw byte stream into a sequence of events. It is not
// safe for concurrent use; one goroutine drains one stream.
type Decoder struct {
	r        io.Reader
	buf      []byte
	scratch  []byte
	eof      bool
	terminal bool
}

// NewDecoder wraps a live stream body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		scratch: make([]byte, 2048),
	}
}

// Next returns the next decoded event. It reads from the underlying
// stream as needed, accumulating bytes until a complete frame is
// buffered; frames are delimited by a blank line. Because the delimiter
// is pure ASCII, multi-byte UTF-8 sequences split across reads are
// reassembled intact. At end of input any buffered remainder is flushed
// as one final frame, so trailing data is never dropped. After a done or
// error frame, or once the input is exhausted, Next returns io.EOF.
func (d *Decoder) Next() (Event, error) {
	if d.terminal {
		return Event{}, io.EOF
	}

	for {
		if idx, delim := frameBoundary(d.buf); idx >= 0 {
			frame := d.buf[:idx]
			d.buf = d.buf[idx+delim:]
			if event, ok := d.parseFrame(frame); ok {
				return event, nil
			}
			continue
		}

		if d.eof {
			frame := bytes.TrimSpace(d.buf)
			d.buf = nil
			d.terminal = true
			if event, ok := d.parseFrame(frame); ok {
				return event, nil
			}
			return Event{}, io.EOF
		}

		n, err := d.r.Read(d.scratch)
		if n > 0 {
			d.buf = append(d.buf, d.scratch[:n]...)
		}
		if err == io.EOF {
			d.eof = true
			continue
		}
		if err != nil {
			d.terminal = true
			return Event{}, err
		}
	}
}

// frameBoundary finds the earliest blank-line delimiter, accepting both
// bare-LF and CRLF line endings. Returns the frame end index and the
// delimiter length, or -1 when no complete frame is buffered.
func frameBoundary(buf []byte) (int, int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))
	switch {
	case lf == -1 && crlf == -1:
		return -1, 0
	case crlf == -1 || (lf != -1 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}

// parseFrame decodes one frame block. Empty blocks (e.g. stray blank
// lines between frames) yield no event.
func (d *Decoder) parseFrame(frame []byte) (Event, bool) {
	block := strings.TrimSpace(string(frame))
	if block == "" {
		return Event{}, false
	}

	eventType := EventMessage
	var dataLines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			eventType = EventType(strings.TrimSpace(strings.TrimPrefix(line, "event:")))
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	data := strings.Join(dataLines, "\n")

	event := Event{Type: eventType, Data: data}
	switch eventType {
	case EventError:
		d.terminal = true
	case EventDone:
		d.terminal = true
		if data != "" {
			if err := json.Unmarshal([]byte(data), &event.Meta); err != nil {
				// Metadata is best-effort; the stream still completed.
				logger.Warn("failed to parse stream metadata", "error", err)
				event.Meta = types.StreamMeta{}
			}
		}
	}
	return event, true
}
