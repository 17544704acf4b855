// File: internal/progress/progress.go

// Package progress publishes byte-count milestones for uploads and downloads.
//
// Emission never blocks: subscribers receive events over buffered channels and
// a subscriber that falls behind misses intermediate milestones. A nil *Stream
// is valid and discards everything, so core code never has to check whether
// anyone is listening.
package progress

import (
	"io"
	"sync"
)

type Operation string

const (
	Upload   Operation = "upload"
	Download Operation = "download"
)

// Event is a cumulative milestone: Bytes is the total transferred so far
type Event struct {
	Operation Operation
	Module    string
	Key       string
	Bytes     int64
	// Zero when the size is unknown
	Total int64
	Done  bool
}

// Fraction returns the completed share in [0, 1], or 0 when Total is unknown
func (e Event) Fraction() float64 {
	if e.Total <= 0 {
		return 0
	}
	f := float64(e.Bytes) / float64(e.Total)
	if f > 1 {
		return 1
	}
	return f
}

type Stream struct {
	mu     sync.Mutex
	subs   []chan Event
	closed bool
}

func NewStream() *Stream {
	return &Stream{}
}

// Subscribe registers a listener. The channel is closed when the stream is closed
func (s *Stream) Subscribe(buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	if s == nil {
		close(ch)
		return ch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Stream) Emit(e Event) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *Stream) Close() {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}

// NewReader wraps r so that every read emits a milestone built from template.
// When r is an io.Seeker the returned reader is one too; seeking resets the count
// since SDKs rewind bodies to compute checksums before sending.
func NewReader(r io.Reader, s *Stream, template Event) io.Reader {
	cr := &countingReader{r: r, stream: s, event: template}
	if seeker, ok := r.(io.Seeker); ok {
		return &countingReadSeeker{countingReader: cr, seeker: seeker}
	}
	return cr
}

type countingReader struct {
	r      io.Reader
	stream *Stream
	event  Event
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.event.Bytes += int64(n)
		c.stream.Emit(c.event)
	}
	if err == io.EOF {
		done := c.event
		done.Done = true
		c.stream.Emit(done)
	}
	return n, err
}

type countingReadSeeker struct {
	*countingReader
	seeker io.Seeker
}

func (c *countingReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := c.seeker.Seek(offset, whence)
	if err == nil {
		c.event.Bytes = pos
	}
	return pos, err
}
