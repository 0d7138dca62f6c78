package imgsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/ernissmal/image-generator-app/pkg/domain"
	"github.com/ernissmal/image-generator-app/pkg/imgutil"
)

const cacheKeyImage = "imgsource:data:"

// maxInlineBytes is the size above which an image is recompressed before
// being sent inline to the API.
const maxInlineBytes = 4 << 20

// ImageCacher caches loaded images across requests.
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Loader resolves image references (local path, http(s) URL, gs:// URI) into
// inline-ready image bytes.
type Loader struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
	cache      ImageCacher
	expiration time.Duration
}

// NewLoader wires the loader. httpClient and reader may be nil, which
// disables the corresponding scheme; cache may be nil to disable caching.
func NewLoader(httpClient httpkit.ClientInterface, reader remoteio.InputReader, cache ImageCacher, cacheTTL time.Duration) *Loader {
	return &Loader{
		httpClient: httpClient,
		reader:     reader,
		cache:      cache,
		expiration: cacheTTL,
	}
}

// Load fetches ref and returns it as a reference image. Oversized images are
// recompressed to JPEG; anything that does not sniff as an image is rejected.
func (l *Loader) Load(ctx context.Context, ref string) (domain.ReferenceImage, error) {
	if l.cache != nil {
		if val, ok := l.cache.Get(cacheKeyImage + ref); ok {
			if img, ok := val.(domain.ReferenceImage); ok {
				return img, nil
			}
		}
	}

	data, err := l.fetch(ctx, ref)
	if err != nil {
		return domain.ReferenceImage{}, err
	}

	if shrunk, err := imgutil.ShrinkToFit(data, maxInlineBytes); err == nil {
		data = shrunk
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ReferenceImage{}, fmt.Errorf("reference %q is not an image (detected %s)", ref, mimeType)
	}

	img := domain.ReferenceImage{Data: data, MimeType: mimeType}
	if l.cache != nil {
		l.cache.Set(cacheKeyImage+ref, img, l.expiration)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "gs://"):
		if l.reader == nil {
			return nil, fmt.Errorf("gs:// references are not configured")
		}
		rc, err := l.reader.Open(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", ref, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)

	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if l.httpClient == nil {
			return nil, fmt.Errorf("http references are not configured")
		}
		if safe, err := IsSafeURL(ref); err != nil || !safe {
			return nil, fmt.Errorf("unsafe reference URL: %w", err)
		}
		return l.httpClient.FetchBytes(ctx, ref)

	default:
		return os.ReadFile(ref)
	}
}
