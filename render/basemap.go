package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
)

// Globe base layers.
const (
	LayerNatural = "natural"
	LayerNight   = "night"
	LayerPlain   = "plain"
)

// ErrUnknownLayer is returned for a layer name NewBaseMap does not know.
var ErrUnknownLayer = errors.New("render: unknown layer")

// BaseMap is an equirectangular image of the globe surface: column 0 is
// longitude -180, row 0 is latitude 90.
type BaseMap struct {
	Layer string
	Image *image.RGBA
}

// NewBaseMap paints a w×h base map for layer. Land and sea come from fractal
// simplex noise on the unit sphere, so the same seed gives the same coastline in
// every layer.
func NewBaseMap(layer string, w, h int, seed int64) (*BaseMap, error) {
	switch layer {
	case LayerNatural, LayerNight, LayerPlain:
	default:
		return nil, ErrUnknownLayer
	}
	w = max(w, 2)
	h = max(h, 2)

	noise := opensimplex.New(seed)
	lights := opensimplex.New(seed + 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		lat := 90 - (float64(y)+0.5)*180/float64(h)
		for x := 0; x < w; x++ {
			lon := -180 + (float64(x)+0.5)*360/float64(w)
			px, py, pz := unitSphere(lon, lat)
			e := elevation(noise, px, py, pz)

			var c color.RGBA
			switch layer {
			case LayerNatural:
				c = naturalColor(e, lat)
			case LayerNight:
				c = nightColor(e, lights.Eval3(px*40, py*40, pz*40))
			case LayerPlain:
				c = plainColor(e)
			}
			img.SetRGBA(x, y, c)
		}
	}
	return &BaseMap{Layer: layer, Image: img}, nil
}

// At returns the nearest texel for a geographic position.
func (m *BaseMap) At(lon, lat float64) color.RGBA {
	b := m.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	x := int((geo.WrapLon(lon) + 180) / 360 * float64(w))
	y := int((90 - geo.ClampLat(lat)) / 180 * float64(h))
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	return m.Image.RGBAAt(b.Min.X+x, b.Min.Y+y)
}

// Picker maps a screen pixel to the surface point beneath it.
type Picker interface {
	Pick(sx, sy float64) (geo.Cartographic, bool)
}

// PaintGlobe ray-casts every pixel of dst against the globe and fills hits with
// the base map. Misses are left untouched. pool may be nil.
func PaintGlobe(dst *image.RGBA, cam Picker, m *BaseMap, pool *particles.Pool) {
	b := dst.Bounds()
	w := b.Dx()
	kernel := func(start, end int) {
		for i := start; i < end; i++ {
			x, y := i%w, i/w
			c, ok := cam.Pick(float64(x)+0.5, float64(y)+0.5)
			if !ok {
				continue
			}
			dst.SetRGBA(b.Min.X+x, b.Min.Y+y, m.At(c.Lon, c.Lat))
		}
	}
	n := w * b.Dy()
	if pool == nil {
		kernel(0, n)
		return
	}
	pool.Run(n, kernel)
}

// Over draws overlay onto dst with source-over blending.
func Over(dst, overlay *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), overlay, overlay.Bounds().Min, draw.Over)
}

func unitSphere(lon, lat float64) (x, y, z float64) {
	sinLon, cosLon := math.Sincos(lon * math.Pi / 180)
	sinLat, cosLat := math.Sincos(lat * math.Pi / 180)
	return cosLat * cosLon, cosLat * sinLon, sinLat
}

// elevation is four octaves of noise in [-1, 1]; above seaLevel is land.
func elevation(n opensimplex.Noise, x, y, z float64) float64 {
	var sum, amp, norm float64 = 0, 1, 0
	freq := 1.5
	for o := 0; o < 4; o++ {
		sum += amp * n.Eval3(x*freq, y*freq, z*freq)
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	return sum / norm
}

const seaLevel = 0.05

func naturalColor(e, lat float64) color.RGBA {
	if math.Abs(lat) > 72 {
		return color.RGBA{R: 232, G: 238, B: 242, A: 255}
	}
	if e < seaLevel {
		d := clamp01(float32((seaLevel - e) * 2.5))
		return color.RGBA{R: uint8(30 - 20*d), G: uint8(80 - 50*d), B: uint8(150 - 60*d), A: 255}
	}
	t := clamp01(float32((e - seaLevel) * 3))
	return color.RGBA{R: uint8(70 + 90*t), G: uint8(120 - 20*t), B: uint8(60 + 10*t), A: 255}
}

func nightColor(e, lights float64) color.RGBA {
	if e < seaLevel {
		return color.RGBA{R: 4, G: 8, B: 20, A: 255}
	}
	if lights > 0.55 {
		return color.RGBA{R: 250, G: 210, B: 120, A: 255}
	}
	return color.RGBA{R: 18, G: 20, B: 26, A: 255}
}

func plainColor(e float64) color.RGBA {
	if e < seaLevel {
		return color.RGBA{R: 40, G: 44, B: 52, A: 255}
	}
	return color.RGBA{R: 96, G: 100, B: 108, A: 255}
}
