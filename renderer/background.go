package renderer

import (
	"math"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/camera"
)

// star is a fixed direction on the celestial sphere.
type star struct {
	x, y, z    float64
	size       float32
	brightness uint8
}

// Starfield draws a deterministic star backdrop. Stars sit at infinity in the
// ellipsoid-fixed frame so they turn with the camera; the globe is drawn over
// them.
type Starfield struct {
	cam   *camera.Globe
	stars []star
}

// NewStarfield places n stars uniformly on the sphere from seed.
func NewStarfield(cam *camera.Globe, n int, seed int64) *Starfield {
	rng := rand.New(rand.NewSource(seed))
	stars := make([]star, n)
	for i := range stars {
		// Uniform on the sphere: z uniform in [-1, 1], angle uniform
		z := rng.Float64()*2 - 1
		a := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(1 - z*z)
		// Mostly faint, a few bright
		b := rng.Float64()
		b = b * b * b
		stars[i] = star{
			x:          r * math.Cos(a),
			y:          r * math.Sin(a),
			z:          z,
			size:       float32(0.6 + 1.4*b),
			brightness: uint8(60 + 195*b),
		}
	}
	return &Starfield{cam: cam, stars: stars}
}

// Len returns the number of stars.
func (s *Starfield) Len() int {
	return len(s.stars)
}

// Name implements scene.Primitive.
func (s *Starfield) Name() string {
	return "starfield"
}

// Execute implements scene.Primitive.
func (s *Starfield) Execute() {
	east, north, up := s.cam.Basis()
	f := s.cam.Focal()
	cx, cy := s.cam.ViewportW/2, s.cam.ViewportH/2

	for _, st := range s.stars {
		// The camera looks along -up
		z := -(st.x*up.X + st.y*up.Y + st.z*up.Z)
		if z <= 0 {
			continue
		}
		sx := cx + f*(st.x*east.X+st.y*east.Y+st.z*east.Z)/z
		sy := cy - f*(st.x*north.X+st.y*north.Y+st.z*north.Z)/z
		if sx < 0 || sy < 0 || sx >= s.cam.ViewportW || sy >= s.cam.ViewportH {
			continue
		}
		c := rl.Color{R: st.brightness, G: st.brightness, B: uint8(min(255, int(st.brightness)+20)), A: 255}
		rl.DrawCircleV(rl.Vector2{X: float32(sx), Y: float32(sy)}, st.size, c)
	}
}
