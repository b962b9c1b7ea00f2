package liveness

import (
	"image"
	"image/color"
	"math"
	"math/rand"
)

// Shared synthetic inputs for the engine tests. Everything is seeded so the
// suite is deterministic.

func uniformRGBA(w, h int, r, g, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// noisyRGBA produces a skin-like textured patch: base color plus per-pixel
// noise so it clears the blur and texture thresholds.
func noisyRGBA(w, h int, baseR, baseG, baseB uint8, amplitude int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: clampByte(int(baseR) + rng.Intn(2*amplitude+1) - amplitude),
				G: clampByte(int(baseG) + rng.Intn(2*amplitude+1) - amplitude),
				B: clampByte(int(baseB) + rng.Intn(2*amplitude+1) - amplitude),
				A: 255,
			})
		}
	}
	return img
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// pulsedWindow builds an RGB sample window whose green channel carries a
// sinusoid at pulseHz, sampled at fs.
func pulsedWindow(n int, fs, pulseHz, amplitude float64) []rgbSample {
	window := make([]rgbSample, n)
	for i := range window {
		t := float64(i) / fs
		pulse := amplitude * math.Sin(2*math.Pi*pulseHz*t)
		window[i] = rgbSample{120, 128 + pulse, 110}
	}
	return window
}

func constantWindow(n int) []rgbSample {
	window := make([]rgbSample, n)
	for i := range window {
		window[i] = rgbSample{120, 128, 110}
	}
	return window
}
