package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader delivers a fixed byte sequence in caller-chosen pieces,
// simulating arbitrary network chunk boundaries.
type chunkedReader struct {
	chunks [][]byte
	index  int
}

func newChunkedReader(chunks ...string) *chunkedReader {
	r := &chunkedReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.index])
	if n < len(r.chunks[r.index]) {
		r.chunks[r.index] = r.chunks[r.index][n:]
	} else {
		r.index++
	}
	return n, nil
}

func drain(t *testing.T, d *Decoder) []Event {
	t.Helper()
	var events []Event
	for {
		event, err := d.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, event)
	}
}

func TestDecoder_SingleFrame(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: message\ndata: Hello\n\n"))
	events := drain(t, d)

	require.Len(t, events, 1)
	assert.Equal(t, EventMessage, events[0].Type)
	assert.Equal(t, "Hello", events[0].Data)
}

func TestDecoder_SplitAcrossChunks(t *testing.T) {
	// The delimiter and even the data value may arrive split.
	d := NewDecoder(newChunkedReader("event: message\ndata: He", "llo\n\n"))
	events := drain(t, d)

	require.Len(t, events, 1)
	assert.Equal(t, EventMessage, events[0].Type)
	assert.Equal(t, "Hello", events[0].Data)
}

func TestDecoder_AnyChunkingYieldsSameEvents(t *testing.T) {
	raw := "data: one\n\nevent: message\ndata: two\n\nevent: done\ndata: {\"session_id\":\"abc\"}\n\n"

	reference := drain(t, NewDecoder(strings.NewReader(raw)))
	require.Len(t, reference, 3)

	// Split the byte stream at every possible single boundary.
	for cut := 1; cut < len(raw); cut++ {
		d := NewDecoder(newChunkedReader(raw[:cut], raw[cut:]))
		assert.Equal(t, reference, drain(t, d), "split at byte %d", cut)
	}

	// One byte at a time.
	var chunks []string
	for i := 0; i < len(raw); i++ {
		chunks = append(chunks, raw[i:i+1])
	}
	assert.Equal(t, reference, drain(t, NewDecoder(newChunkedReader(chunks...))))
}

func TestDecoder_MultiByteCharacterSplitMidSequence(t *testing.T) {
	raw := "data: héllo wörld\n\n"
	// Cut inside the two-byte é sequence.
	cut := strings.Index(raw, "é") + 1
	d := NewDecoder(newChunkedReader(raw[:cut], raw[cut:]))
	events := drain(t, d)

	require.Len(t, events, 1)
	assert.Equal(t, "héllo wörld", events[0].Data)
}

func TestDecoder_DefaultEventTypeIsMessage(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: no event line\n\n"))
	events := drain(t, d)

	require.Len(t, events, 1)
	assert.Equal(t, EventMessage, events[0].Type)
}

func TestDecoder_MultiLineDataJoinedWithNewline(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: first\ndata: second\n\n"))
	events := drain(t, d)

	require.Len(t, events, 1)
	assert.Equal(t, "first\nsecond", events[0].Data)
}

func TestDecoder_CRLFLinesAndDelimiter(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: message\r\ndata: Hello\r\n\r\ndata: again\r\n\r\n"))
	events := drain(t, d)

	require.Len(t, events, 2)
	assert.Equal(t, "Hello", events[0].Data)
	assert.Equal(t, "again", events[1].Data)
}

func TestDecoder_FlushOnCloseWithoutTrailingDelimiter(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: complete\n\ndata: trailing"))
	events := drain(t, d)

	require.Len(t, events, 2)
	assert.Equal(t, "complete", events[0].Data)
	assert.Equal(t, "trailing", events[1].Data)
}

func TestDecoder_DoneFrameParsesMetadata(t *testing.T) {
	d := NewDecoder(strings.NewReader(
		"data: Bon\n\ndata: jour\n\nevent: done\ndata: {\"final_text\":\"Bonjour\",\"detected_lang\":\"fr\",\"session_id\":\"s-1\"}\n\n"))
	events := drain(t, d)

	require.Len(t, events, 3)
	done := events[2]
	assert.Equal(t, EventDone, done.Type)
	assert.Equal(t, "Bonjour", done.Meta.FinalText)
	assert.Equal(t, "fr", done.Meta.DetectedLang)
	assert.Equal(t, "s-1", done.Meta.SessionID)
}

func TestDecoder_DoneFrameWithBadMetadataIsTolerated(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: done\ndata: {not json\n\n"))

	event, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, EventDone, event.Type)
	assert.Zero(t, event.Meta)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_TerminalAfterDone(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: done\ndata: {}\n\ndata: ignored\n\n"))

	event, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, EventDone, event.Type)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_ErrorEventIsTerminal(t *testing.T) {
	d := NewDecoder(strings.NewReader("event: error\ndata: model unavailable\n\ndata: ignored\n\n"))

	event, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, EventError, event.Type)
	assert.Equal(t, "model unavailable", event.Data)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecoder_ReadErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	d := NewDecoder(&failingReader{err: boom})

	_, err := d.Next()
	assert.ErrorIs(t, err, boom)

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoder_EmptyStream(t *testing.T) {
	d := NewDecoder(strings.NewReader(""))
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}
