package glbackend

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fortio.org/safecast"
	"github.com/go-gl/gl/v4.1-core/gl"

	"sdfbox/internal/graphics"
)

// glSize converts a pixel size to GL integers.
func glSize(w, h int) (int32, int32, error) {
	w32, err := safecast.Conv[int32](w)
	if err != nil {
		return 0, 0, fmt.Errorf("glbackend: width %d: %w", w, err)
	}
	h32, err := safecast.Conv[int32](h)
	if err != nil {
		return 0, 0, fmt.Errorf("glbackend: height %d: %w", h, err)
	}
	return w32, h32, nil
}

// uploadRGBA creates a 2D texture from img. With mipmaps the texture gets
// a full mip chain and trilinear filtering.
func uploadRGBA(img *image.RGBA, mipmaps bool) (uint32, error) {
	size := img.Rect.Size()
	w, h, err := glSize(size.X, size.Y)
	if err != nil {
		return 0, err
	}

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if mipmaps {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	if mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texture, nil
}

// decodeRGBA reads an image file into an RGBA buffer.
func decodeRGBA(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// Environments caches equirectangular environment maps by path.
type Environments struct {
	mu    sync.Mutex
	cache map[string]graphics.EnvironmentMap
}

// NewEnvironments returns an empty cache.
func NewEnvironments() *Environments {
	return &Environments{cache: make(map[string]graphics.EnvironmentMap)}
}

// Load returns the environment at path, uploading it on first use. An
// empty path selects the built-in studio environment.
func (e *Environments) Load(path string) (graphics.EnvironmentMap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if env, ok := e.cache[path]; ok {
		return env, nil
	}
	var (
		img  *image.RGBA
		name = "studio"
		err  error
	)
	if path == "" {
		img = studioEnvironment(512, 256)
	} else {
		img, err = decodeRGBA(path)
		if err != nil {
			return graphics.EnvironmentMap{}, err
		}
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	tex, err := uploadRGBA(img, true)
	if err != nil {
		return graphics.EnvironmentMap{}, err
	}
	env := graphics.EnvironmentMap{
		Name:    name,
		Width:   img.Rect.Dx(),
		Height:  img.Rect.Dy(),
		Texture: tex,
	}
	e.cache[path] = env
	return env, nil
}

// Release deletes every cached texture.
func (e *Environments) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for path, env := range e.cache {
		tex := env.Texture
		gl.DeleteTextures(1, &tex)
		delete(e.cache, path)
	}
}

// studioEnvironment paints a soft overhead light over a dim floor.
func studioEnvironment(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// v runs from +1 at the zenith to -1 at the nadir
		v := 1 - 2*(float64(y)+0.5)/float64(h)
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			light := math.Pow(math.Max(v, 0), 4) * 0.9
			rim := 0.25 * math.Max(0, math.Cos((u-0.25)*2*math.Pi)) * (1 - math.Abs(v))
			base := 0.35 + 0.25*v
			l := math.Min(base+light+rim, 1)
			img.SetRGBA(x, y, color.RGBA{R: channel(l), G: channel(l * 0.98), B: channel(l * 0.95), A: 255})
		}
	}
	return img
}

func neutralEnvironment() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	return img
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(v, 1)) * 255))
}
