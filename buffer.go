// buffer.go
package paresampler

import "unsafe"

// Buffer is a (block, offset, length) triple, the Go shape of the
// pa_memchunk the spec describes in §4.3: a reference to a pooled block
// plus a byte range within it. Buffers never own raw slices directly so
// that block reuse and the pool's size ceiling stay visible to the
// orchestrator.
type Buffer struct {
	block  *Block
	offset int
	length int
}

// Empty reports whether the buffer carries no data.
func (b Buffer) Empty() bool { return b.length == 0 }

// Len returns the buffer's length in bytes.
func (b Buffer) Len() int { return b.length }

// Bytes returns the buffer's byte range. The caller must not retain the
// slice past the buffer's next resize.
func (b Buffer) Bytes() []byte {
	if b.block == nil {
		return nil
	}
	full := b.block.Acquire()
	defer b.block.Release()
	return full[b.offset : b.offset+b.length]
}

// int16View reinterprets the buffer's bytes as native-endian int16
// samples. The buffer must hold an S16NE-formatted region.
func (b Buffer) int16View() []int16 {
	raw := b.Bytes()
	if len(raw) == 0 {
		return nil
	}
	return unsafe.Slice((*int16)(unsafe.Pointer(&raw[0])), len(raw)/2)
}

// float32View reinterprets the buffer's bytes as native-endian float32
// samples. The buffer must hold an F32NE-formatted region.
func (b Buffer) float32View() []float32 {
	raw := b.Bytes()
	if len(raw) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), len(raw)/4)
}

// scratchBuffer is a growable Buffer that remembers the sample count its
// backing block was last sized for, so that repeated runs of similar
// size don't reallocate (the policy described in §4.3).
type scratchBuffer struct {
	pool        *Pool
	buf         Buffer
	sizedFor    int // samples (not bytes) the current block was allocated for
	bytesPerSmp int
}

func newScratchBuffer(pool *Pool, bytesPerSample int) *scratchBuffer {
	return &scratchBuffer{pool: pool, bytesPerSmp: bytesPerSample}
}

// setBytesPerSample updates the element width (it can change across a
// resampler's lifetime if the work format changes, though in practice it
// is fixed once at construction).
func (s *scratchBuffer) setBytesPerSample(n int) { s.bytesPerSmp = n }

// resize ensures the buffer holds exactly nSamples samples, growing the
// backing block only when the existing one is too small. It does not
// preserve existing contents.
func (s *scratchBuffer) resize(nSamples int) error {
	length := nSamples * s.bytesPerSmp
	if s.buf.block == nil || s.sizedFor < nSamples {
		block, err := s.pool.Alloc(length)
		if err != nil {
			return err
		}
		s.buf = Buffer{block: block, offset: 0, length: length}
		s.sizedFor = nSamples
		return nil
	}
	s.buf.offset = 0
	s.buf.length = length
	return nil
}

// resizePreservingPrefix behaves like resize but, when growing, copies
// the first keepBytes of the old block into the new one before it is
// discarded. This backs the remap buffer's in-place leftover
// preservation (§4.3).
func (s *scratchBuffer) resizePreservingPrefix(nSamples int, keepBytes int) error {
	length := nSamples * s.bytesPerSmp
	if s.buf.block == nil || s.sizedFor < nSamples {
		block, err := s.pool.Alloc(length)
		if err != nil {
			return err
		}
		if keepBytes > 0 && s.buf.block != nil {
			copy(block.Acquire(), s.buf.Bytes()[:keepBytes])
		}
		s.buf = Buffer{block: block, offset: 0, length: length}
		s.sizedFor = nSamples
		return nil
	}
	s.buf.offset = 0
	s.buf.length = length
	return nil
}
