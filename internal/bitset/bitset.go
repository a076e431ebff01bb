// Package bitset provides a reusable scratch bitset for candidate marking
// during index queries.
package bitset

// FastBitSet is a non-thread-safe bitset optimized for reuse across many
// queries. It keeps a dirty list so Reset runs in O(set bits) rather than
// O(capacity).
type FastBitSet struct {
	bits  []uint64
	dirty []uint64
}

// NewFast creates a new FastBitSet able to hold capacity bits before
// growing.
func NewFast(capacity int) *FastBitSet {
	return &FastBitSet{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]uint64, 0, 128),
	}
}

// Set marks a bit as set.
func (b *FastBitSet) Set(id uint64) {
	wordIdx := int(id >> 6)
	bitMask := uint64(1) << (id & 63)

	if wordIdx >= len(b.bits) {
		b.grow(wordIdx + 1)
	}

	if b.bits[wordIdx]&bitMask == 0 {
		b.bits[wordIdx] |= bitMask
		b.dirty = append(b.dirty, id)
	}
}

// TestAndSet sets the bit and returns true if it was already set.
func (b *FastBitSet) TestAndSet(id uint64) bool {
	wordIdx := int(id >> 6)
	bitMask := uint64(1) << (id & 63)

	if wordIdx >= len(b.bits) {
		b.grow(wordIdx + 1)
	}

	if b.bits[wordIdx]&bitMask != 0 {
		return true
	}

	b.bits[wordIdx] |= bitMask
	b.dirty = append(b.dirty, id)
	return false
}

// Test returns true if the bit is set.
func (b *FastBitSet) Test(id uint64) bool {
	wordIdx := int(id >> 6)
	if wordIdx >= len(b.bits) {
		return false
	}
	return b.bits[wordIdx]&(uint64(1)<<(id&63)) != 0
}

// Reset clears all set bits.
func (b *FastBitSet) Reset() {
	for _, id := range b.dirty {
		wordIdx := int(id >> 6)
		bitMask := uint64(1) << (id & 63)
		b.bits[wordIdx] &^= bitMask
	}
	b.dirty = b.dirty[:0]
}

func (b *FastBitSet) grow(newLen int) {
	currentLen := len(b.bits)
	newCap := currentLen * 2
	if newCap < newLen {
		newCap = newLen
	}

	newBits := make([]uint64, newCap)
	copy(newBits, b.bits)
	b.bits = newBits
}
