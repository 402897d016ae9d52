package persistence

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"

	"github.com/denizumutdereli/nukebridge/pkg/scene"
	"github.com/vmihailenco/msgpack/v5"
)

// Binary format constants
const (
	MagicBytes    = "NKBR" // NukeBridge magic identifier
	FormatVersion = 1
)

// Header for binary format
type Header struct {
	Magic    [4]byte
	Version  uint16
	Flags    uint16
	NameLen  uint32
	DataLen  uint64
	Checksum uint32
}

const (
	FlagCompressed uint16 = 1 << 0
)

// Codec handles encoding/decoding of graph snapshots
type Codec struct {
	compress  bool
	compLevel int
}

// NewCodec creates a new codec
func NewCodec(compress bool) *Codec {
	return &Codec{
		compress:  compress,
		compLevel: gzip.BestSpeed, // Fast compression
	}
}

// Encode serializes a snapshot to binary format
func (c *Codec) Encode(snap *scene.Snapshot) ([]byte, error) {
	// First, encode with msgpack
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, err
	}

	// Optionally compress
	var flags uint16 = 0
	if c.compress {
		compressed, err := c.compressData(data)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(data) {
			data = compressed
			flags |= FlagCompressed
		}
	}

	// Build header
	header := Header{
		Version:  FormatVersion,
		Flags:    flags,
		NameLen:  uint32(len(snap.Name)),
		DataLen:  uint64(len(data)),
		Checksum: c.checksum(data),
	}
	copy(header.Magic[:], MagicBytes)

	// Serialize header + name + data
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, err
	}

	if _, err := buf.WriteString(snap.Name); err != nil {
		return nil, err
	}

	if _, err := buf.Write(data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode deserializes binary format to a snapshot
func (c *Codec) Decode(raw []byte) (*scene.Snapshot, error) {
	if len(raw) < 24 { // Minimum header size
		return nil, errors.New("data too short")
	}

	buf := bytes.NewReader(raw)

	var header Header
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}

	// Verify magic
	if string(header.Magic[:]) != MagicBytes {
		return nil, errors.New("invalid magic bytes")
	}

	// Check version
	if header.Version > FormatVersion {
		return nil, errors.New("unsupported format version")
	}

	// Read embedded script name
	nameBytes := make([]byte, header.NameLen)
	if _, err := io.ReadFull(buf, nameBytes); err != nil {
		return nil, err
	}

	// Read data
	data := make([]byte, header.DataLen)
	if _, err := io.ReadFull(buf, data); err != nil {
		return nil, err
	}

	// Verify checksum
	if c.checksum(data) != header.Checksum {
		return nil, errors.New("checksum mismatch")
	}

	// Decompress if needed
	if header.Flags&FlagCompressed != 0 {
		decompressed, err := c.decompressData(data)
		if err != nil {
			return nil, err
		}
		data = decompressed
	}

	// Decode msgpack
	var snap scene.Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// compressData compresses using gzip
func (c *Codec) compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.compLevel)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompressData decompresses gzip data
func (c *Codec) decompressData(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

// checksum calculates a simple checksum
func (c *Codec) checksum(data []byte) uint32 {
	var sum uint32 = 0
	for i := 0; i < len(data); i++ {
		sum = sum*31 + uint32(data[i])
	}
	return sum
}
