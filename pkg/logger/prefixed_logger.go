package logger

import (
	"bytes"
	"sync"
)

// NewPrefixedLogger returns a logger that starts every line with prefix.
//
// Partial lines are held until their newline arrives, so interleaved output
// of concurrent builds stays readable line by line.
func NewPrefixedLogger(prefix string, original Logger) Logger {
	p := &prefixer{prefix: []byte(prefix), atLineStart: true}
	return NewFuncLogger(original.SupportsColor(), original.Level(), func(level Level, fields Fields, b []byte) error {
		original.WithFields(fields).Write(level, p.apply(b))
		return nil
	})
}

type prefixer struct {
	mu          sync.Mutex
	prefix      []byte
	atLineStart bool
}

func (p *prefixer) apply(b []byte) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out bytes.Buffer
	for len(b) > 0 {
		if p.atLineStart {
			out.Write(p.prefix)
			p.atLineStart = false
		}
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			out.Write(b)
			break
		}
		out.Write(b[:i+1])
		b = b[i+1:]
		p.atLineStart = true
	}
	return out.Bytes()
}
