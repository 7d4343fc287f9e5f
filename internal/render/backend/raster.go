package backend

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

// Resolution clamps, matching the original renderer.
const (
	minResX, maxResX = 256, 1920
	minResY, maxResY = 256, 1080
)

// Raster synthesizes a deterministic placeholder image instead of invoking
// a real renderer, for environments without the external tool. The output
// is pixel-deterministic for a given job id and time position, so golden
// image tests can compare bytes.
type Raster struct{}

func NewRaster() *Raster { return &Raster{} }

func (r *Raster) Name() string      { return "raster" }
func (r *Raster) OutputExt() string { return ".png" }

func (r *Raster) Invoke(ctx context.Context, in Invocation) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Diagnostic: fmt.Sprintf("raster canceled: %v", err)}
	}

	resX, resY := resolution(in.Params)
	img := drawPlaceholder(in.JobID, in.TimeNorm, resX, resY)

	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return Outcome{Diagnostic: fmt.Sprintf("raster mkdir: %v", err)}
	}
	f, err := os.Create(in.OutputPath)
	if err != nil {
		return Outcome{Diagnostic: fmt.Sprintf("raster create output: %v", err)}
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return Outcome{Diagnostic: fmt.Sprintf("raster encode: %v", err)}
	}
	return Outcome{OK: true, OutputPath: in.OutputPath}
}

func resolution(params map[string]any) (int, int) {
	x, y := 1280, 720
	if res, ok := params["resolution"].(map[string]any); ok {
		if v, ok := asInt(res["x"]); ok {
			x = v
		}
		if v, ok := asInt(res["y"]); ok {
			y = v
		}
	}
	return clamp(x, minResX, maxResX), clamp(y, minResY, maxResY)
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	}
	return 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawPlaceholder paints the cosmic placeholder frame: a dark gradient,
// a seeded star field, elliptical galaxy rings and a timeline marker at
// the normalized time position.
func drawPlaceholder(jobID string, timeNorm float64, resX, resY int) *image.RGBA {
	rng := rand.New(rand.NewSource(seed(jobID, timeNorm)))
	img := image.NewRGBA(image.Rect(0, 0, resX, resY))

	// Background gradient.
	for y := 0; y < resY; y++ {
		ratio := float64(y) / math.Max(float64(resY-1), 1)
		c := color.RGBA{
			R: uint8(6 + 10*ratio),
			G: uint8(12 + 24*ratio),
			B: uint8(24 + 40*ratio),
			A: 255,
		}
		for x := 0; x < resX; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	// Star field.
	const starCount = 400
	for i := 0; i < starCount; i++ {
		x := rng.Intn(resX)
		y := rng.Intn(resY)
		brightness := uint8(150 + rng.Intn(106))
		size := 1
		if rng.Float64() >= 0.9 {
			size = 2
		}
		fillRect(img, x, y, size, color.RGBA{brightness, brightness, brightness, 255})
	}

	// Galaxy rings around the center.
	cx, cy := resX/2, resY/2
	ring := color.RGBA{80, 180, 255, 255}
	maxRadius := minInt(resX, resY) / 2
	for radius := 80; radius < maxRadius; radius += 60 {
		drawEllipse(img, cx, cy, radius, radius/2, ring)
	}

	// Timeline with the event marker at time_norm.
	tn := math.Max(0, math.Min(timeNorm, 1))
	markerX := int(40 + tn*float64(resX-80))
	lineColor := color.RGBA{90, 140, 220, 255}
	for x := 40; x <= resX-40; x++ {
		img.SetRGBA(x, cy, lineColor)
		img.SetRGBA(x, cy+1, lineColor)
	}
	fillCircle(img, markerX, cy, 8, color.RGBA{255, 200, 120, 255})
	drawEllipse(img, markerX, cy, 9, 9, color.RGBA{255, 240, 200, 255})

	return img
}

func seed(jobID string, timeNorm float64) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s-%v", jobID, timeNorm)
	return int64(h.Sum64())
}

func fillRect(img *image.RGBA, x, y, size int, c color.RGBA) {
	for dy := 0; dy <= size; dy++ {
		for dx := 0; dx <= size; dx++ {
			setIfInside(img, x+dx, y+dy, c)
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				setIfInside(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawEllipse(img *image.RGBA, cx, cy, rx, ry int, c color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	steps := 8 * (rx + ry)
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(float64(rx)*math.Cos(theta)))
		y := cy + int(math.Round(float64(ry)*math.Sin(theta)))
		setIfInside(img, x, y, c)
		setIfInside(img, x, y+1, c)
	}
}

func setIfInside(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
