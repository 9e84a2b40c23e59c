// Package renderer draws the globe and the particle trails with raylib.
package renderer

import (
	_ "embed"
)

//go:embed shaders/trail_fade.fs
var trailFadeFS string

//go:embed shaders/globe.fs
var globeFS string
