// Package compress shrinks payloads before they are handed to a transport.
//
// Like package crypto it is a pure byte-slice transform; the transports
// never call it. Peers must agree on the Algorithm out of band.
package compress

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// MaxDecompressedSize caps the output of Decompress.
const MaxDecompressedSize = 16 << 20

var (
	// ErrTooLarge indicates decompressed output above MaxDecompressedSize.
	ErrTooLarge = errors.New("decompressed payload too large")

	// ErrUnknownAlgorithm indicates an unsupported algorithm.
	ErrUnknownAlgorithm = errors.New("unknown compression algorithm")
)

// Algorithm selects a compression format.
type Algorithm int

const (
	AlgorithmNone Algorithm = iota
	AlgorithmGzip
	AlgorithmZstd
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmGzip:
		return "gzip"
	case AlgorithmZstd:
		return "zstd"
	}
	return "unknown"
}

// ParseAlgorithm maps a configuration name to an Algorithm. An empty name
// selects AlgorithmNone.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return AlgorithmNone, nil
	case "gzip":
		return AlgorithmGzip, nil
	case "zstd":
		return AlgorithmZstd, nil
	}
	return 0, errors.Wrapf(ErrUnknownAlgorithm, "%q", name)
}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error
)

// zstdEncoder returns the shared encoder. EncodeAll is safe for concurrent
// use.
func zstdEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder, encoderErr
}

// Compress returns data compressed with alg. A nil slice yields nil.
func Compress(alg Algorithm, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch alg {
	case AlgorithmNone:
		return append([]byte(nil), data...), nil
	case AlgorithmGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, errors.Wrap(err, "gzip write")
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, "gzip close")
		}
		return buf.Bytes(), nil
	case AlgorithmZstd:
		enc, err := zstdEncoder()
		if err != nil {
			return nil, errors.Wrap(err, "zstd encoder")
		}
		return enc.EncodeAll(data, nil), nil
	}
	return nil, errors.Wrapf(ErrUnknownAlgorithm, "%d", int(alg))
}

// Decompress reverses Compress. A nil slice yields nil.
func Decompress(alg Algorithm, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch alg {
	case AlgorithmNone:
		return append([]byte(nil), data...), nil
	case AlgorithmGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "gzip header")
		}
		defer r.Close()
		return readLimited(r, "gzip")
	case AlgorithmZstd:
		d, err := zstd.NewReader(bytes.NewReader(data), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "zstd decoder")
		}
		defer d.Close()
		return readLimited(d, "zstd")
	}
	return nil, errors.Wrapf(ErrUnknownAlgorithm, "%d", int(alg))
}

func readLimited(r io.Reader, name string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, errors.Wrap(err, name+" read")
	}
	if len(out) > MaxDecompressedSize {
		return nil, ErrTooLarge
	}
	return out, nil
}
