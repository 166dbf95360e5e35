package capture

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

func compressZstd(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	enc := zstdEncPool.Get().(*zstd.Encoder)
	enc.Reset(&buf)

	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		zstdEncPool.Put(enc)
		return nil, err
	}
	if err := enc.Close(); err != nil {
		zstdEncPool.Put(enc)
		return nil, err
	}

	zstdEncPool.Put(enc)
	return buf.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		zstdDecPool.Put(dec)
		return nil, err
	}

	var out bytes.Buffer
	if _, err := out.ReadFrom(dec); err != nil {
		zstdDecPool.Put(dec)
		return nil, err
	}

	zstdDecPool.Put(dec)
	return out.Bytes(), nil
}
