// ABOUTME: Minimal Server-Sent Events decoder for provider streaming bodies
// ABOUTME: Handles event/data/id fields, multi-line data, and comment lines

package sse

import (
	"bufio"
	"io"
	"strings"
)

// Event is one decoded SSE frame.
type Event struct {
	Type string
	Data string
	ID   string
}

// Decoder reads events off a stream. Not safe for concurrent use.
type Decoder struct {
	s *bufio.Scanner
}

// Provider payloads can carry large base64 blobs in a single data line.
const maxLine = 1 << 20

// NewDecoder wraps r in an event decoder.
func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return &Decoder{s: s}
}

// Next returns the next event, or io.EOF when the stream is exhausted. A
// partial event at EOF (fields seen but no terminating blank line) is still
// delivered.
func (d *Decoder) Next() (*Event, error) {
	ev := &Event{}
	var data []string
	dirty := false

	flush := func() *Event {
		ev.Data = strings.Join(data, "\n")
		return ev
	}

	for d.s.Scan() {
		line := d.s.Text()
		switch {
		case line == "":
			if dirty {
				return flush(), nil
			}
		case strings.HasPrefix(line, ":"):
			// comment, keep-alive
		default:
			name, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch name {
			case "event":
				ev.Type = value
				dirty = true
			case "data":
				data = append(data, value)
				dirty = true
			case "id":
				ev.ID = value
				dirty = true
			}
		}
	}

	if err := d.s.Err(); err != nil {
		return nil, err
	}
	if dirty {
		return flush(), nil
	}
	return nil, io.EOF
}
