// Package buffer implements the chunked byte ring described in
// SPEC_FULL.md §6.2 (spec.md §4.2, C2): append-only at the tail,
// consume-only at the head, with a non-consuming Peek and a
// ForEachChunk that surfaces contiguous regions without copying.
//
// bytes.Buffer (stdlib) does not expose a non-consuming peek or a
// chunk-visiting iterator, which is the explicit contract spec.md §3
// requires ("peek never consumes"; "for_each_chunk(visit) surfaces
// contiguous regions to parsers without copying"); no pack dependency
// offers this either, so this is implemented directly against a slice
// of chunks — documented in DESIGN.md as a standard-library-grounded
// primitive.
package buffer

import "errors"

// ErrShortRead is returned by Read when the buffer has fewer than n
// bytes — spec.md says this is an error, not a short read.
var ErrShortRead = errors.New("buffer: read(n) with n > length")

// Buffer is an ordered byte sequence.
type Buffer struct {
	chunks [][]byte
	length int
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append appends bytes to the tail. The slice is retained, not copied;
// callers must not mutate it afterwards.
func (b *Buffer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.chunks = append(b.chunks, p)
	b.length += len(p)
}

// AppendString appends a string to the tail.
func (b *Buffer) AppendString(s string) {
	b.Append([]byte(s))
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int {
	return b.length
}

// Peek returns the first n bytes without consuming them. It returns
// fewer than n bytes only if the buffer itself is shorter than n.
func (b *Buffer) Peek(n int) []byte {
	if n > b.length {
		n = b.length
	}
	out := make([]byte, 0, n)
	for _, c := range b.chunks {
		if len(out) >= n {
			break
		}
		need := n - len(out)
		if need >= len(c) {
			out = append(out, c...)
		} else {
			out = append(out, c[:need]...)
		}
	}
	return out
}

// Read consumes and returns exactly min(n, Len()) bytes, per spec.md §8
// ("Buffer.read(n) on a buffer of length L returns exactly min(n,L)
// bytes and advances the head by that amount"). It returns ErrShortRead
// only when the caller explicitly wants strict semantics via ReadExact.
func (b *Buffer) Read(n int) []byte {
	if n > b.length {
		n = b.length
	}
	out := b.Peek(n)
	b.Discard(n)
	return out
}

// ReadExact behaves like Read but returns ErrShortRead if n > Len(),
// matching spec.md §3's "read N with N>length is an error" wording
// literally for callers that need the strict contract.
func (b *Buffer) ReadExact(n int) ([]byte, error) {
	if n > b.length {
		return nil, ErrShortRead
	}
	return b.Read(n), nil
}

// Discard advances the head by n bytes (or Len() bytes if n exceeds it).
func (b *Buffer) Discard(n int) {
	if n > b.length {
		n = b.length
	}
	remaining := n
	for remaining > 0 && len(b.chunks) > 0 {
		head := b.chunks[0]
		if remaining >= len(head) {
			remaining -= len(head)
			b.chunks = b.chunks[1:]
		} else {
			b.chunks[0] = head[remaining:]
			remaining = 0
		}
	}
	b.length -= n
}

// ForEachChunk surfaces each contiguous region to visit without
// copying. Stops early if visit returns false.
func (b *Buffer) ForEachChunk(visit func([]byte) bool) {
	for _, c := range b.chunks {
		if !visit(c) {
			return
		}
	}
}
