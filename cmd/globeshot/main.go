// Globe screenshot tool - renders the globe shader for one camera pose to a PNG.
//
// Usage: go run ./cmd/globeshot -layer night -lon 10 -lat 45 -height 8e6 -out globe.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/camera"
	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/renderer"
)

func main() {
	layer := flag.String("layer", "natural", "Globe base layer")
	lon := flag.Float64("lon", 0, "Camera longitude in degrees")
	lat := flag.Float64("lat", 20, "Camera latitude in degrees")
	height := flag.Float64("height", 2e7, "Camera height in meters")
	seed := flag.Int64("seed", 1, "Base map seed")
	outPath := flag.String("out", "globe.png", "Output PNG path")
	width := flag.Int("width", 512, "Render width")
	h := flag.Int("h", 512, "Render height")
	flag.Parse()

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(*width), int32(*h), "Globe Shot")
	defer rl.CloseWindow()

	cam := camera.New(float64(*width), float64(*h), geo.WGS84, *lon, *lat, *height)
	globe, err := renderer.NewGlobeRenderer(cam, *layer, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create globe renderer: %v\n", err)
		os.Exit(1)
	}
	defer globe.Unload()

	target := rl.LoadRenderTexture(int32(*width), int32(*h))
	defer rl.UnloadRenderTexture(target)

	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.Black)
	globe.Execute()
	rl.EndTextureMode()

	// Render textures are stored bottom-up
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if !success {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
	fmt.Printf("Globe rendered to: %s (%dx%d, layer %s)\n", *outPath, *width, *h, *layer)
}
