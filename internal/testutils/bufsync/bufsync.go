// Package bufsync has a buffer that a subprocess can write to while a test
// polls it.
package bufsync

import (
	"bytes"
	"io"
	"sync"
)

type ThreadSafeBuffer struct {
	buf *bytes.Buffer
	mu  sync.Mutex
}

func NewThreadSafeBuffer() *ThreadSafeBuffer {
	return &ThreadSafeBuffer{
		buf: bytes.NewBuffer(nil),
	}
}

func (b *ThreadSafeBuffer) Write(bs []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(bs)
}

func (b *ThreadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = &ThreadSafeBuffer{}
