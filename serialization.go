package bitcuckoo

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// filterHeader is the fixed-size part of the serialized filter. It is
// followed by TableBytes bytes of packed table, verbatim.
type filterHeader struct {
	NumBuckets        uint64
	BucketSize        uint64
	FingerprintWidth  uint64
	MaxKicks          uint64
	Hash              uint64
	Seeds             [3]uint64
	Length            uint64
	VictimUsed        uint64
	VictimBucket      uint64
	VictimFingerprint uint64
	TableBytes        uint64
}

func (filter *Filter) header() filterHeader {
	h := filterHeader{
		NumBuckets:       filter.params.numBuckets,
		BucketSize:       filter.params.bucketSize,
		FingerprintWidth: filter.params.fingerprintWidth,
		MaxKicks:         filter.params.maxKicks,
		Hash:             uint64(filter.params.hash),
		Seeds:            filter.params.seeds,
		Length:           filter.length,
		TableBytes:       filter.table.byteLen(),
	}
	if filter.victim.used {
		h.VictimUsed = 1
		h.VictimBucket = filter.victim.bucket
		h.VictimFingerprint = filter.victim.fingerPrint
	}
	return h
}

func (h filterHeader) params() (filterParams, error) {
	p := filterParams{
		numBuckets:       h.NumBuckets,
		bucketSize:       h.BucketSize,
		fingerprintWidth: h.FingerprintWidth,
		maxKicks:         h.MaxKicks,
		hash:             HashKind(h.Hash),
		seeds:            h.Seeds,
	}
	if err := p.validate(); err != nil {
		return filterParams{}, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if p.maxKicks == 0 {
		return filterParams{}, fmt.Errorf("%w: max kicks is zero", ErrCorruptData)
	}
	return p, nil
}

// tableBytes is the packed table size implied by the layout fields. Only
// call it on a header whose params validated.
func (h filterHeader) tableBytes() uint64 {
	bits := h.NumBuckets * h.BucketSize * h.FingerprintWidth
	n := bits / 8
	if bits%8 != 0 {
		n++
	}
	return n
}

// restore replaces the state of filter with the decoded header and table.
// The random source and logger of filter are kept when already set.
func (filter *Filter) restore(h filterHeader, table []byte) error {
	p, err := h.params()
	if err != nil {
		return err
	}
	if expected := h.tableBytes(); uint64(len(table)) != expected {
		return fmt.Errorf("%w: table holds %d bytes, got %d", ErrCorruptData, expected, len(table))
	}
	restored := newFilter(p, Options{Rand: filter.rng, Logger: filter.logger})
	if err := restored.table.load(table); err != nil {
		return err
	}
	if h.VictimUsed > 1 {
		return fmt.Errorf("%w: victim flag %d", ErrCorruptData, h.VictimUsed)
	}
	if h.VictimUsed == 1 {
		if h.VictimBucket >= p.numBuckets || h.VictimFingerprint == 0 || h.VictimFingerprint > restored.codec.mask {
			return fmt.Errorf("%w: victim out of range", ErrCorruptData)
		}
		restored.victim = victim{used: true, bucket: h.VictimBucket, fingerPrint: h.VictimFingerprint}
	}
	restored.length = restored.table.count() + h.VictimUsed
	if restored.length != h.Length {
		return fmt.Errorf("%w: length %d does not match %d stored fingerprints", ErrCorruptData, h.Length, restored.length)
	}
	*filter = *restored
	return nil
}

// WriteTo writes the filter onto _stream_ and returns the number of bytes
// written. Integers are big-endian; the packed table follows the header.
func (filter *Filter) WriteTo(stream io.Writer) (int64, error) {
	h := filter.header()
	if err := binary.Write(stream, binary.BigEndian, h); err != nil {
		return 0, fmt.Errorf("bitcuckoo: error writing header: %w", err)
	}
	n, err := stream.Write(filter.table.bytes())
	if err != nil {
		return int64(binary.Size(h) + n), fmt.Errorf("bitcuckoo: error writing table: %w", err)
	}
	return int64(binary.Size(h) + n), nil
}

// ReadFrom reads a filter written by WriteTo from _stream_ into filter and
// returns the number of bytes read.
func (filter *Filter) ReadFrom(stream io.Reader) (int64, error) {
	var h filterHeader
	if err := binary.Read(stream, binary.BigEndian, &h); err != nil {
		return 0, fmt.Errorf("bitcuckoo: error reading header: %w", err)
	}
	numBytes := int64(binary.Size(h))
	if _, err := h.params(); err != nil {
		return numBytes, err
	}
	if expected := h.tableBytes(); h.TableBytes != expected {
		return numBytes, fmt.Errorf("%w: table holds %d bytes, header says %d", ErrCorruptData, expected, h.TableBytes)
	}
	// the buffer grows with the data actually read, not with the header
	var table bytes.Buffer
	n, err := io.CopyN(&table, stream, int64(h.TableBytes))
	numBytes += n
	if err != nil {
		return numBytes, fmt.Errorf("bitcuckoo: error reading table: %w", err)
	}
	return numBytes, filter.restore(h, table.Bytes())
}

// MarshalBinary implements encoding.BinaryMarshaler using the WriteTo
// format.
func (filter *Filter) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := filter.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (filter *Filter) UnmarshalBinary(data []byte) error {
	var h filterHeader
	size := binary.Size(h)
	if len(data) < size {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptData, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:size]), binary.BigEndian, &h); err != nil {
		return fmt.Errorf("bitcuckoo: error reading header: %w", err)
	}
	if uint64(len(data)-size) != h.TableBytes {
		return fmt.Errorf("%w: header says %d table bytes, got %d", ErrCorruptData, h.TableBytes, len(data)-size)
	}
	return filter.restore(h, data[size:])
}

// filterJSON is the JSON form of a filter; the table is base64 encoded.
type filterJSON struct {
	NumBuckets       uint64      `json:"nb"`
	BucketSize       uint64      `json:"bs"`
	FingerprintWidth uint64      `json:"fw"`
	MaxKicks         uint64      `json:"mk"`
	Hash             string      `json:"h"`
	Seeds            [3]uint64   `json:"sd"`
	Length           uint64      `json:"l"`
	Victim           *victimJSON `json:"v,omitempty"`
	Table            []byte      `json:"t"`
}

type victimJSON struct {
	Bucket      uint64 `json:"b"`
	FingerPrint uint64 `json:"fp"`
}

// Export JSON marshals the filter and returns a byte slice containing the
// data.
func (filter *Filter) Export() ([]byte, error) {
	f := filterJSON{
		NumBuckets:       filter.params.numBuckets,
		BucketSize:       filter.params.bucketSize,
		FingerprintWidth: filter.params.fingerprintWidth,
		MaxKicks:         filter.params.maxKicks,
		Hash:             filter.params.hash.String(),
		Seeds:            filter.params.seeds,
		Length:           filter.length,
		Table:            filter.table.bytes(),
	}
	if filter.victim.used {
		f.Victim = &victimJSON{filter.victim.bucket, filter.victim.fingerPrint}
	}
	return json.Marshal(f)
}

// Import JSON unmarshals _data_ produced by Export into the filter.
func (filter *Filter) Import(data []byte) error {
	var f filterJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("bitcuckoo: error importing data: %w", err)
	}
	kind, err := parseHashKind(f.Hash)
	if err != nil {
		return err
	}
	h := filterHeader{
		NumBuckets:       f.NumBuckets,
		BucketSize:       f.BucketSize,
		FingerprintWidth: f.FingerprintWidth,
		MaxKicks:         f.MaxKicks,
		Hash:             uint64(kind),
		Seeds:            f.Seeds,
		Length:           f.Length,
		TableBytes:       uint64(len(f.Table)),
	}
	if f.Victim != nil {
		h.VictimUsed = 1
		h.VictimBucket = f.Victim.Bucket
		h.VictimFingerprint = f.Victim.FingerPrint
	}
	return filter.restore(h, f.Table)
}
