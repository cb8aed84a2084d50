// Copyright 2026 The DbLogger Authors
// SPDX-License-Identifier: Apache-2.0

package pipe

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how an entry's text travels on the wire.
// The numeric values are protocol constants.
type Compression uint8

const (
	// CompressionNone sends text as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: fast, modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level. SQL with long
	// repeated column lists compresses well under zstd.
	CompressionZstd Compression = 2
)

// String returns the configuration name of the algorithm.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configuration name. The empty string means
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// errIncompressible reports that compression would not shrink the
// data; the caller sends it uncompressed.
var errIncompressible = errors.New("data is incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("pipe: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("pipe: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(data []byte, algorithm Compression) ([]byte, error) {
	switch algorithm {
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 || written >= len(data) {
			return nil, errIncompressible
		}
		return destination[:written], nil

	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", algorithm)
	}
}

// decompress reverses compress. size must match the original length
// exactly.
func decompress(compressed []byte, algorithm Compression, size int) ([]byte, error) {
	if size <= 0 || size > maxItemSizeLimit {
		return nil, fmt.Errorf("%s decompress: implausible size %d", algorithm, size)
	}
	switch algorithm {
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(compressed, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", algorithm)
	}
}
