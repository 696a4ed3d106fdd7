package cache

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the artifact compression algorithm.
type Compression uint8

const (
	// CompressionNone stores artifacts raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, lighter ratio).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd block compression (better ratio, default).
	CompressionZstd Compression = 2
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Artifact frame: [Algorithm uint8][UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the data is stored raw. The algorithm tag makes
// frames self-describing: a cache dir written under one Compression setting
// stays readable after the setting changes.
const frameHeaderSize = 9

var errCorruptFrame = errors.New("cache: corrupt artifact frame")

// compressArtifact frames data for storage, compressing with c unless the
// result would not be worth it (ratio above 0.9 stores raw).
func compressArtifact(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch c {
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	case CompressionNone:
	default:
		return nil, errors.New("cache: unknown compression algorithm")
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		frame := make([]byte, frameHeaderSize+len(data))
		frame[0] = byte(c)
		binary.LittleEndian.PutUint32(frame[1:], uint32(len(data)))
		binary.LittleEndian.PutUint32(frame[5:], 0)
		copy(frame[frameHeaderSize:], data)
		return frame, nil
	}

	frame := make([]byte, frameHeaderSize+len(compressed))
	frame[0] = byte(c)
	binary.LittleEndian.PutUint32(frame[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(frame[5:], uint32(len(compressed)))
	copy(frame[frameHeaderSize:], compressed)
	return frame, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return dst[:n], nil
}

func compressZstd(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

// decompressArtifact reverses compressArtifact, picking the algorithm from
// the frame header.
func decompressArtifact(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, errCorruptFrame
	}

	algo := Compression(frame[0])
	uncompressedSize := binary.LittleEndian.Uint32(frame[1:])
	compressedSize := binary.LittleEndian.Uint32(frame[5:])

	if compressedSize == 0 {
		if uint32(len(frame)) < frameHeaderSize+uncompressedSize {
			return nil, errCorruptFrame
		}
		return frame[frameHeaderSize : frameHeaderSize+uncompressedSize], nil
	}

	if uint32(len(frame)) < frameHeaderSize+compressedSize {
		return nil, errCorruptFrame
	}
	payload := frame[frameHeaderSize : frameHeaderSize+compressedSize]

	switch algo {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errCorruptFrame
		}
		return out, nil

	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		out, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, err
		}
		if uint32(len(out)) != uncompressedSize {
			return nil, errCorruptFrame
		}
		return out, nil

	default:
		return nil, errCorruptFrame
	}
}
