package bitcuckoo

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// bucketTable is a fixed array of numBuckets x bucketSize slots of width
// bits each, packed back to back in one bitset. Slot s of bucket b starts
// at bit (b*bucketSize + s) * width; bit j of a slot value is stored at
// that offset + j, and table bit p lives in word p/64 at position p%64.
// A zero slot is empty.
type bucketTable struct {
	bits       *bitset.BitSet
	bucketSize uint64
	width      uint64
	mask       uint64
	size       uint64
}

func newBucketTable(numBuckets, bucketSize, width uint64) *bucketTable {
	size := numBuckets * bucketSize * width
	return &bucketTable{
		bits:       bitset.New(uint(size)),
		bucketSize: bucketSize,
		width:      width,
		mask:       1<<width - 1,
		size:       size,
	}
}

func (table *bucketTable) offset(bucket, slot uint64) uint64 {
	return (bucket*table.bucketSize + slot) * table.width
}

func (table *bucketTable) read(bucket, slot uint64) uint64 {
	pos := table.offset(bucket, slot)
	words := table.bits.Bytes()
	word, shift := pos/64, pos%64
	v := words[word] >> shift
	if shift+table.width > 64 {
		v |= words[word+1] << (64 - shift)
	}
	return v & table.mask
}

func (table *bucketTable) write(bucket, slot uint64, value uint64) {
	pos := table.offset(bucket, slot)
	words := table.bits.Bytes()
	word, shift := pos/64, pos%64
	v := value & table.mask
	words[word] = words[word]&^(table.mask<<shift) | v<<shift
	if shift+table.width > 64 {
		spill := 64 - shift
		words[word+1] = words[word+1]&^(table.mask>>spill) | v>>spill
	}
}

// findEmpty returns the first empty slot of bucket.
func (table *bucketTable) findEmpty(bucket uint64) (uint64, bool) {
	return table.find(bucket, 0)
}

// find returns the first slot of bucket holding fp.
func (table *bucketTable) find(bucket uint64, fp uint64) (uint64, bool) {
	for slot := uint64(0); slot < table.bucketSize; slot++ {
		if table.read(bucket, slot) == fp {
			return slot, true
		}
	}
	return 0, false
}

func (table *bucketTable) occupied(bucket uint64) uint64 {
	n := uint64(0)
	for slot := uint64(0); slot < table.bucketSize; slot++ {
		if table.read(bucket, slot) != 0 {
			n++
		}
	}
	return n
}

func (table *bucketTable) numBuckets() uint64 {
	return table.size / (table.bucketSize * table.width)
}

// count returns the number of occupied slots in the whole table.
func (table *bucketTable) count() uint64 {
	n := uint64(0)
	for bucket := uint64(0); bucket < table.numBuckets(); bucket++ {
		n += table.occupied(bucket)
	}
	return n
}

func (table *bucketTable) byteLen() uint64 {
	return (table.size + 7) / 8
}

// bytes returns the packed table; byte k holds table bits 8k to 8k+7.
func (table *bucketTable) bytes() []byte {
	words := table.bits.Bytes()
	buf := make([]byte, len(words)*8)
	for i, w := range words {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return buf[:table.byteLen()]
}

// load replaces the table content with the packed bytes produced by bytes.
func (table *bucketTable) load(data []byte) error {
	if uint64(len(data)) != table.byteLen() {
		return fmt.Errorf("%w: table holds %d bytes, got %d", ErrCorruptData, table.byteLen(), len(data))
	}
	words := table.bits.Bytes()
	buf := make([]byte, len(words)*8)
	copy(buf, data)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	if tail := table.size % 64; tail != 0 && words[len(words)-1]>>tail != 0 {
		return fmt.Errorf("%w: bits set past the end of the table", ErrCorruptData)
	}
	return nil
}

func (table *bucketTable) reset() {
	table.bits.ClearAll()
}

func (table *bucketTable) equal(other *bucketTable) bool {
	return table.bucketSize == other.bucketSize &&
		table.width == other.width &&
		table.bits.Equal(other.bits)
}
