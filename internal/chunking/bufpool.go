package chunking

import "sync"

// copyBufSize is the read granularity while hashing; chunks themselves are
// usually far larger and are streamed through this buffer.
const copyBufSize = 256 * 1024

// bufPool hands out fixed-size byte slices for io.CopyBuffer.
type bufPool struct {
	pool    sync.Pool
	bufSize int
}

func newBufPool(bufSize int) *bufPool {
	if bufSize <= 0 {
		panic("bufSize must be positive")
	}
	return &bufPool{
		bufSize: bufSize,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, bufSize)
				return &b
			},
		},
	}
}

func (p *bufPool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	if cap(*b) < p.bufSize {
		nb := make([]byte, p.bufSize)
		return &nb
	}
	*b = (*b)[:p.bufSize]
	return b
}

func (p *bufPool) Put(b *[]byte) {
	if b == nil || cap(*b) < p.bufSize {
		return
	}
	p.pool.Put(b)
}

var sharedPool = newBufPool(copyBufSize)
