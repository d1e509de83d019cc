package imagecache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
)

// ErrUnsupportedScheme is returned for icon URLs no loader handles.
var ErrUnsupportedScheme = errors.New("unsupported icon url scheme")

// Loader fetches and decodes one icon.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (image.Image, error) { return f(ctx, url) }

// FileLoader decodes icons from the local filesystem. "file://" prefixes are
// stripped.
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(strings.TrimPrefix(url, "file://"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

// HTTPLoader fetches icons over http(s).
type HTTPLoader struct {
	Client *http.Client
}

func (l HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

// BuiltinSize is the edge length of generated pins.
const BuiltinSize = 16

var builtinColors = map[string]color.RGBA{
	"red":    {R: 0xe0, G: 0x30, B: 0x30, A: 0xff},
	"green":  {R: 0x30, G: 0xb0, B: 0x40, A: 0xff},
	"blue":   {R: 0x30, G: 0x70, B: 0xe0, A: 0xff},
	"yellow": {R: 0xe0, G: 0xc0, B: 0x20, A: 0xff},
	"orange": {R: 0xf0, G: 0x80, B: 0x20, A: 0xff},
	"purple": {R: 0x90, G: 0x40, B: 0xc0, A: 0xff},
	"white":  {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

// BuiltinLoader generates a pin for "builtin:<color>" URLs, so the layer
// works without any image files.
type BuiltinLoader struct{}

func (BuiltinLoader) Load(_ context.Context, url string) (image.Image, error) {
	name := strings.TrimPrefix(url, "builtin:")
	c, ok := builtinColors[name]
	if !ok {
		return nil, fmt.Errorf("builtin icon %q: unknown color", name)
	}
	return Pin(BuiltinSize, c), nil
}

// Pin draws a filled circle with a tail pointing at the bottom centre.
func Pin(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 3
	cx, cy := float64(size)/2, r+0.5
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			dx, dy := fx-cx, fy-cy
			head := dx*dx+dy*dy <= r*r
			// tail narrows linearly from the head to the tip
			tail := fy > cy && fy <= float64(size) && absf(dx) <= r*(float64(size)-fy)/(float64(size)-cy)
			if head || tail {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SchemeLoader dispatches on the URL scheme. URLs without a known scheme go
// to Default, when set.
type SchemeLoader struct {
	Schemes map[string]Loader
	Default Loader
}

// DefaultLoader handles http, https, file and builtin URLs, and treats
// anything else as a local path.
func DefaultLoader() *SchemeLoader {
	h := HTTPLoader{}
	return &SchemeLoader{
		Schemes: map[string]Loader{
			"http":    h,
			"https":   h,
			"file":    FileLoader{},
			"builtin": BuiltinLoader{},
		},
		Default: FileLoader{},
	}
}

func (s *SchemeLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if i := strings.Index(url, ":"); i > 1 {
		if l, ok := s.Schemes[strings.ToLower(url[:i])]; ok {
			return l.Load(ctx, url)
		}
	}
	if s.Default == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, url)
	}
	return s.Default.Load(ctx, url)
}
