// Package pool provides reusable copy buffers for blob and archive I/O.
// Uses sync.Pool for automatic memory reuse across copies.
package pool

import (
	"io"
	"sync"
)

// BufferSize is the size of pooled copy buffers.
const BufferSize = 256 << 10

var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// Get retrieves a buffer from the pool.
func Get() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// Put returns a buffer to the pool. Buffers of the wrong size are dropped.
func Put(buf *[]byte) {
	if buf == nil || cap(*buf) != BufferSize {
		return
	}
	*buf = (*buf)[:BufferSize]
	bufferPool.Put(buf)
}

// Copy copies src to dst through a pooled buffer.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := Get()
	defer Put(buf)
	return io.CopyBuffer(dst, src, *buf)
}

// CopyN copies exactly n bytes from src to dst through a pooled buffer.
func CopyN(dst io.Writer, src io.Reader, n int64) (int64, error) {
	written, err := Copy(dst, io.LimitReader(src, n))
	if err == nil && written < n {
		err = io.EOF
	}
	return written, err
}
