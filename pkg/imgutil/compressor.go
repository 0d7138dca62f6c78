package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

// qualityLadder is the descending JPEG quality sequence ShrinkToFit walks
// when chasing a size target.
var qualityLadder = []int{85, 70, 55, 40}

// CompressToJPEG re-encodes image data (PNG, GIF, JPEG and anything else
// image.Decode supports) as JPEG at the given quality.
func CompressToJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ShrinkToFit returns data unchanged when it already fits maxBytes,
// otherwise re-encodes it as JPEG at decreasing quality until it fits. When
// even the lowest rung stays over the target, the smallest encoding is
// returned along with an error, so callers can decide whether oversized is
// acceptable.
func ShrinkToFit(data []byte, maxBytes int) ([]byte, error) {
	if len(data) <= maxBytes {
		return data, nil
	}

	var smallest []byte
	for _, quality := range qualityLadder {
		out, err := CompressToJPEG(data, quality)
		if err != nil {
			return nil, err
		}
		if len(out) <= maxBytes {
			return out, nil
		}
		if smallest == nil || len(out) < len(smallest) {
			smallest = out
		}
	}
	return smallest, fmt.Errorf("image still %d bytes after compression, target %d", len(smallest), maxBytes)
}
