package util

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// MaxDecompressedSize caps the output of Decompress. Status lists and
// revocation sets are far below it.
const MaxDecompressedSize = 16 << 20

func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)

	_, err := gz.Write(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	err = gz.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}

	return buf.Bytes(), nil
}

func Decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(io.LimitReader(gz, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress data: %w", err)
	}
	if len(out) > MaxDecompressedSize {
		return nil, fmt.Errorf("failed to decompress data: output exceeds %d bytes", MaxDecompressedSize)
	}
	return out, nil
}

// CompressToBase64URL gzips data and encodes it as unpadded base64url, the
// encoding used for status list bitstrings and revocation sets.
func CompressToBase64URL(data []byte) (string, error) {
	compressed, err := Compress(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(compressed), nil
}

func DecompressFromBase64URL(data string) ([]byte, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64url: %w", err)
	}
	return Decompress(compressed)
}
