package liveness

import (
	"math"
	"testing"
)

func TestEvaluateSpoofScreenTexture(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("flat rendered surface is detected", func(t *testing.T) {
		flat := uniformRGBA(64, 64, 128, 128, 128)
		reading := evaluateSpoof(cfg, flat, grayPlane(flat), nil)
		if !reading.TextureEvaluated {
			t.Fatal("texture not evaluated on a full-size plane")
		}
		if !reading.ScreenTextureDetected {
			t.Errorf("flat surface not flagged, uniformity=%v", reading.TextureUniformity)
		}
	})

	t.Run("pore-level noise passes", func(t *testing.T) {
		textured := noisyRGBA(64, 64, 170, 150, 140, 30, 11)
		reading := evaluateSpoof(cfg, textured, grayPlane(textured), nil)
		if reading.ScreenTextureDetected {
			t.Errorf("textured face flagged as screen, uniformity=%v", reading.TextureUniformity)
		}
	})
}

func TestEvaluateSpoofStaticImage(t *testing.T) {
	cfg := DefaultConfig()
	textured := noisyRGBA(64, 64, 170, 150, 140, 30, 12)
	facePlane := grayPlane(textured)

	t.Run("frozen green signal is static", func(t *testing.T) {
		history := make([]float64, 90)
		for i := range history {
			history[i] = 128
		}
		reading := evaluateSpoof(cfg, textured, facePlane, history)
		if !reading.StaticEvaluated {
			t.Fatal("static check not evaluated with a full history")
		}
		if !reading.IsStatic {
			t.Errorf("frozen signal not static, variance=%v", reading.SignalVariance)
		}
	})

	t.Run("pulsing green signal is alive", func(t *testing.T) {
		history := make([]float64, 90)
		for i := range history {
			history[i] = 128 + 5*math.Sin(2*math.Pi*1.2*float64(i)/30)
		}
		reading := evaluateSpoof(cfg, textured, facePlane, history)
		if reading.IsStatic {
			t.Errorf("pulsing signal flagged static, variance=%v", reading.SignalVariance)
		}
		if reading.LightingUnstable {
			t.Errorf("small pulse flagged as lighting instability, variance=%v", reading.SignalVariance)
		}
	})

	t.Run("short history assumes static", func(t *testing.T) {
		reading := evaluateSpoof(cfg, textured, facePlane, make([]float64, 10))
		if reading.StaticEvaluated {
			t.Error("static check should wait for a full history")
		}
		if !reading.IsStatic {
			t.Error("an unproven source must be assumed static")
		}
	})
}

func TestEvaluateSpoofScreenFlicker(t *testing.T) {
	cfg := DefaultConfig()
	textured := noisyRGBA(64, 64, 170, 150, 140, 30, 13)
	facePlane := grayPlane(textured)

	t.Run("backlight flicker is detected", func(t *testing.T) {
		history := make([]float64, 90)
		for i := range history {
			t := float64(i) / 30
			// Strong 8 Hz flicker with a faint cardiac component.
			history[i] = 128 + 10*math.Sin(2*math.Pi*8*t) + 1*math.Sin(2*math.Pi*1.2*t)
		}
		reading := evaluateSpoof(cfg, textured, facePlane, history)
		if !reading.ScreenFlickerDetected {
			t.Errorf("flicker not detected, ratio=%v", reading.ScreenFlickerRatio)
		}
	})

	t.Run("cardiac-band pulse is not flicker", func(t *testing.T) {
		history := make([]float64, 90)
		for i := range history {
			history[i] = 128 + 5*math.Sin(2*math.Pi*1.2*float64(i)/30)
		}
		reading := evaluateSpoof(cfg, textured, facePlane, history)
		if reading.ScreenFlickerDetected {
			t.Errorf("pulse flagged as flicker, ratio=%v", reading.ScreenFlickerRatio)
		}
	})
}

func TestMoireScore(t *testing.T) {
	t.Run("too small to score", func(t *testing.T) {
		if got := moireScore(grayPlane(uniformRGBA(16, 16, 128, 128, 128))); got != 0 {
			t.Errorf("moireScore on a 16x16 plane = %v, want 0", got)
		}
	})

	t.Run("pixel grid scores above organic texture", func(t *testing.T) {
		// High-frequency vertical stripe pattern, like a screen's pixel grid.
		striped := uniformRGBA(64, 64, 128, 128, 128)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x += 2 {
				striped.Pix[striped.PixOffset(x, y)] = 200
				striped.Pix[striped.PixOffset(x, y)+1] = 200
				striped.Pix[striped.PixOffset(x, y)+2] = 200
			}
		}
		gridScore := moireScore(grayPlane(striped))
		organicScore := moireScore(grayPlane(noisyRGBA(64, 64, 170, 150, 140, 30, 14)))
		if gridScore <= organicScore {
			t.Errorf("grid score %v not above organic score %v", gridScore, organicScore)
		}
	})
}
