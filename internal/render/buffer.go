// Package render executes compiled plans against an append-only output
// buffer. Escaping is the default: the only way to get text into a Buffer
// unescaped is a plan literal, a Raw value, or a Renderable.
package render

import (
	"bytes"
	goerrors "errors"
	"io"

	"github.com/conneroisu/htmlc/internal/errors"
	"github.com/conneroisu/htmlc/internal/escape"
)

// Raw is text that is written without escaping.
type Raw struct {
	s string
}

// DangerouslyTrustRaw marks s as safe HTML. The caller is responsible for s
// never containing untrusted input.
func DangerouslyTrustRaw(s string) Raw {
	return Raw{s: s}
}

// String returns the trusted text.
func (r Raw) String() string { return r.s }

// Renderable values write themselves into a buffer when interpolated. Their
// output is not escaped a second time.
type Renderable interface {
	RenderHTML(buf *Buffer) error
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithLimit caps the buffer at n bytes. A write that would exceed the cap
// panics with *errors.AllocationFailure. Zero means no limit.
func WithLimit(n int) Option {
	return func(b *Buffer) { b.limit = n }
}

// WithCapacity preallocates n bytes.
func WithCapacity(n int) Option {
	return func(b *Buffer) { b.initial = n }
}

// Buffer is an append-only output sink. It is not safe for concurrent use.
type Buffer struct {
	buf     bytes.Buffer
	limit   int
	initial int
	depth   int
}

// NewBuffer returns an empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	if b.initial > 0 {
		b.reserve(b.initial)
	}
	return b
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.buf.Len() }

// Limit returns the configured cap, zero when unlimited.
func (b *Buffer) Limit() int { return b.limit }

// String returns the accumulated text.
func (b *Buffer) String() string { return b.buf.String() }

// Bytes returns the accumulated text without copying. The slice is only
// valid until the next write.
func (b *Buffer) Bytes() []byte { return b.buf.Bytes() }

// WriteTo writes the accumulated text to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.buf.Bytes())
	return int64(n), err
}

// WriteEscaped writes the text form of v with HTML special characters
// replaced. Raw values are written as is.
func (b *Buffer) WriteEscaped(v any) {
	b.writeValue(v, true)
}

// WriteRaw writes trusted text unescaped.
func (b *Buffer) WriteRaw(r Raw) {
	b.writeString(r.s)
}

func (b *Buffer) writeString(s string) {
	if s == "" {
		return
	}
	b.reserve(len(s))
	b.buf.WriteString(s)
}

func (b *Buffer) writeEscapedString(s string) {
	if !escape.NeedsEscaping(s) {
		b.writeString(s)
		return
	}
	b.reserve(escape.EscapedLen(s))
	b.buf.Write(escape.AppendString(b.buf.AvailableBuffer(), s))
}

// grow preallocates n bytes when that fits within the limit.
func (b *Buffer) grow(n int) {
	if n <= 0 || (b.limit > 0 && b.buf.Len()+n > b.limit) {
		return
	}
	b.reserve(n)
}

// reserve makes room for n more bytes or panics with an AllocationFailure.
func (b *Buffer) reserve(n int) {
	if b.limit > 0 && b.buf.Len()+n > b.limit {
		panic(&errors.AllocationFailure{Requested: n, Limit: b.limit})
	}
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok && goerrors.Is(err, bytes.ErrTooLarge) {
				panic(&errors.AllocationFailure{Requested: n, Limit: b.limit, Cause: err})
			}
			panic(r)
		}
	}()
	b.buf.Grow(n)
}

// truncate discards everything after the first n bytes.
func (b *Buffer) truncate(n int) {
	b.buf.Truncate(n)
}
