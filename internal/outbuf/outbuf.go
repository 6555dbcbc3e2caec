// Package outbuf implements layered output capture. A Stack decorates a
// writer: while layers are open, writes land in the top layer, and closing
// a layer hands its content back to the caller instead of the writer.
package outbuf

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

// Filter transforms a layer's content when it is flushed into its parent.
type Filter func(content string) (string, error)

// Layer is one capture buffer on a Stack.
type Layer struct {
	id     int
	buf    bytes.Buffer
	filter Filter
}

// ID returns the layer's position-independent identifier.
func (l *Layer) ID() int {
	return l.id
}

// Stack is a stack of capture layers over a base writer.
// It is safe for concurrent use.
type Stack struct {
	mu     sync.Mutex
	base   io.Writer
	layers []*Layer
	nextID int
}

// Ensure Stack is a writer.
var _ io.StringWriter = (*Stack)(nil)

// New creates a stack writing through to base when no layer is open.
func New(base io.Writer) *Stack {
	return &Stack{base: base, nextID: 1}
}

// Push opens a new top layer. A nil filter flushes content unchanged.
func (s *Stack) Push(filter Filter) *Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &Layer{id: s.nextID, filter: filter}
	s.nextID++
	s.layers = append(s.layers, l)
	return l
}

// Write appends p to the top layer, or to the base writer if none is open.
func (s *Stack) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.layers); n > 0 {
		return s.layers[n-1].buf.Write(p)
	}
	return s.base.Write(p)
}

// WriteString is Write for strings.
func (s *Stack) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Depth returns the number of open layers.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// Contains reports whether l is still open on this stack.
func (s *Stack) Contains(l *Layer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(l) >= 0
}

// Close flushes every layer opened after l into its parent, innermost
// first, then pops l and returns its raw content. Layer filters that fail
// are logged and their content is flushed unfiltered.
// Returns domain.ErrBufferNotFound if l is no longer on the stack.
func (s *Stack) Close(l *Layer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(l)
	if i < 0 {
		return "", fmt.Errorf("layer %d: %w", layerID(l), domain.ErrBufferNotFound)
	}
	for len(s.layers)-1 > i {
		top := s.pop()
		s.layers[len(s.layers)-1].buf.WriteString(s.filtered(top))
	}
	s.pop()
	return l.buf.String(), nil
}

// Flush closes every open layer, writing the result to the base writer.
func (s *Stack) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.layers) > 0 {
		top := s.pop()
		content := s.filtered(top)
		if len(s.layers) > 0 {
			s.layers[len(s.layers)-1].buf.WriteString(content)
			continue
		}
		if _, err := io.WriteString(s.base, content); err != nil {
			return fmt.Errorf("flush layer %d: %w", top.id, err)
		}
	}
	return nil
}

func (s *Stack) indexOf(l *Layer) int {
	for i, candidate := range s.layers {
		if candidate == l {
			return i
		}
	}
	return -1
}

func (s *Stack) pop() *Layer {
	n := len(s.layers)
	top := s.layers[n-1]
	s.layers[n-1] = nil
	s.layers = s.layers[:n-1]
	return top
}

func (s *Stack) filtered(l *Layer) string {
	content := l.buf.String()
	if l.filter == nil {
		return content
	}
	out, err := l.filter(content)
	if err != nil {
		logger.Warn("outbuf: flush layer %d: %v", l.id, err)
		return content
	}
	return out
}

func layerID(l *Layer) int {
	if l == nil {
		return 0
	}
	return l.id
}
