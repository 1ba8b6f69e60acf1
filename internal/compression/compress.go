// Package compression encodes and decodes log batch payloads.
// A payload is a gzip stream wrapped in standard base64, the format
// CloudWatch Logs uses for subscription deliveries.
package compression

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxDecompressedSize bounds how much a single payload may inflate to.
const MaxDecompressedSize = 64 << 20

// ErrTooLarge is returned when a payload inflates past MaxDecompressedSize.
var ErrTooLarge = errors.New("decompressed payload exceeds size limit")

// CompressionLevel represents the compression level.
type CompressionLevel int

const (
	// LevelNone disables compression.
	LevelNone CompressionLevel = 0
	// LevelFast uses fastest compression (gzip level 1).
	LevelFast CompressionLevel = 1
	// LevelDefault uses default compression (gzip level 6).
	LevelDefault CompressionLevel = 6
	// LevelMax uses maximum compression (gzip level 9).
	LevelMax CompressionLevel = 9
)

// CompressionType represents the compression algorithm.
type CompressionType string

const (
	TypeGzip CompressionType = "gzip"
	TypeNone CompressionType = "none"
)

// Compressor produces payloads at a given gzip level.
type Compressor struct {
	Type  CompressionType
	Level CompressionLevel
}

// NewCompressor creates a new compressor with the specified level.
// Level 0 means the gzip stream is written with no compression
// (the stream framing is still present, decoders require it).
func NewCompressor(level CompressionLevel) *Compressor {
	if level <= LevelNone {
		return &Compressor{Type: TypeNone, Level: LevelNone}
	}
	return &Compressor{Type: TypeGzip, Level: level}
}

// NewCompressorFromString creates a compressor from a string level.
// Valid values: "none", "fast", "default", "max"
func NewCompressorFromString(level string) (*Compressor, error) {
	switch strings.ToLower(level) {
	case "none", "0":
		return NewCompressor(LevelNone), nil
	case "fast", "1":
		return NewCompressor(LevelFast), nil
	case "default", "6", "":
		return NewCompressor(LevelDefault), nil
	case "max", "9":
		return NewCompressor(LevelMax), nil
	default:
		return nil, fmt.Errorf("invalid compression level: %s (must be none, fast, default, or max)", level)
	}
}

// IsEnabled returns true if compression is enabled.
func (c *Compressor) IsEnabled() bool {
	return c.Type != TypeNone
}

// String returns the string representation of the compressor.
func (c *Compressor) String() string {
	switch c.Level {
	case LevelNone:
		return "none"
	case LevelFast:
		return "fast"
	case LevelDefault:
		return "default"
	case LevelMax:
		return "max"
	default:
		return fmt.Sprintf("level-%d", c.Level)
	}
}

// Compress gzips data.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	level := int(c.Level)
	if !c.IsEnabled() {
		level = gzip.NoCompression
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}

	return buf.Bytes(), nil
}

// EncodePayload gzips data and encodes it as standard base64.
func (c *Compressor) EncodePayload(data []byte) (string, error) {
	compressed, err := c.Compress(data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// Decompress inflates a gzip stream, refusing output larger than
// MaxDecompressedSize.
func Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	defer r.Close()

	result, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(result) > MaxDecompressedSize {
		return nil, ErrTooLarge
	}

	return result, nil
}

// DecodePayload reverses EncodePayload. Surrounding whitespace is ignored.
func DecodePayload(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	return Decompress(raw)
}
