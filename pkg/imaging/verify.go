package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	// decoders registered for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("imaging: empty image data")
	// ErrUnsupported is returned when no registered decoder accepts the data.
	ErrUnsupported = errors.New("imaging: not a supported image")
)

// Verify checks that data is a decodable jpeg, png, gif or webp image and
// returns the detected format name.
func Verify(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: zero dimension", ErrUnsupported)
	}
	return format, nil
}

// VerifyFile is Verify for a file on disk.
func VerifyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Verify(data)
}
