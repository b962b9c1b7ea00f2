package liveness

import (
	"image"
	"math"
)

// plane is a single-channel float image in row-major order, values 0..255.
type plane struct {
	pix  []float64
	w, h int
}

func (p plane) empty() bool { return p.w == 0 || p.h == 0 }

// grayPlane converts an image to a luminance plane using the Rec.601 weights.
func grayPlane(img image.Image) plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return plane{}
	}
	pix := make([]float64, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix[i] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			i++
		}
	}
	return plane{pix: pix, w: w, h: h}
}

// channelPlane extracts one RGB channel (0=R, 1=G, 2=B) as a plane.
func channelPlane(img image.Image, channel int) plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return plane{}
	}
	pix := make([]float64, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			switch channel {
			case 0:
				pix[i] = float64(r >> 8)
			case 1:
				pix[i] = float64(g >> 8)
			default:
				pix[i] = float64(b >> 8)
			}
			i++
		}
	}
	return plane{pix: pix, w: w, h: h}
}

// meanRGB returns the per-channel mean color of the image in 0..255.
func meanRGB(img image.Image) (float64, float64, float64) {
	bounds := img.Bounds()
	var sumR, sumG, sumB float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sumR += float64(r >> 8)
			sumG += float64(g >> 8)
			sumB += float64(b >> 8)
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	n := float64(count)
	return sumR / n, sumG / n, sumB / n
}

func planeMean(p plane) float64 {
	if len(p.pix) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.pix {
		sum += v
	}
	return sum / float64(len(p.pix))
}

// laplacianVariance applies the 4-neighbor Laplacian over the plane interior
// and returns its variance. Low variance means a blurry or featureless patch.
func laplacianVariance(p plane) float64 {
	if p.w < 3 || p.h < 3 {
		return 0
	}
	n := (p.w - 2) * (p.h - 2)
	responses := make([]float64, 0, n)
	var sum float64
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			i := y*p.w + x
			lap := p.pix[i-1] + p.pix[i+1] + p.pix[i-p.w] + p.pix[i+p.w] - 4*p.pix[i]
			responses = append(responses, lap)
			sum += lap
		}
	}
	mean := sum / float64(n)
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// gaussianBlur3 smooths the plane with a 3x3 binomial kernel. Edges are kept
// as-is; a one-pixel border does not move the downstream variance numbers.
func gaussianBlur3(p plane) plane {
	if p.w < 3 || p.h < 3 {
		return p
	}
	out := make([]float64, len(p.pix))
	copy(out, p.pix)
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			i := y*p.w + x
			out[i] = (p.pix[i-p.w-1] + 2*p.pix[i-p.w] + p.pix[i-p.w+1] +
				2*p.pix[i-1] + 4*p.pix[i] + 2*p.pix[i+1] +
				p.pix[i+p.w-1] + 2*p.pix[i+p.w] + p.pix[i+p.w+1]) / 16
		}
	}
	return plane{pix: out, w: p.w, h: p.h}
}

// boxBlur computes the k x k window mean at every pixel, clamping the window
// at the borders.
func boxBlur(p plane, k int) plane {
	if p.empty() {
		return p
	}
	half := k / 2
	out := make([]float64, len(p.pix))
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			var sum float64
			var count int
			for dy := -half; dy <= half; dy++ {
				yy := y + dy
				if yy < 0 || yy >= p.h {
					continue
				}
				for dx := -half; dx <= half; dx++ {
					xx := x + dx
					if xx < 0 || xx >= p.w {
						continue
					}
					sum += p.pix[yy*p.w+xx]
					count++
				}
			}
			out[y*p.w+x] = sum / float64(count)
		}
	}
	return plane{pix: out, w: p.w, h: p.h}
}

// localStdMean is the average local standard deviation over k x k windows.
// Organic skin micro-texture keeps this high; rendered screen surfaces do not.
func localStdMean(p plane, k int) float64 {
	if p.empty() {
		return 0
	}
	sq := make([]float64, len(p.pix))
	for i, v := range p.pix {
		sq[i] = v * v
	}
	meanLocal := boxBlur(p, k)
	sqMeanLocal := boxBlur(plane{pix: sq, w: p.w, h: p.h}, k)
	var sum float64
	for i := range p.pix {
		sum += math.Sqrt(math.Max(sqMeanLocal.pix[i]-meanLocal.pix[i]*meanLocal.pix[i], 0))
	}
	return sum / float64(len(p.pix))
}

// absDiffMean is the mean absolute per-pixel difference between two planes of
// equal shape; mismatched shapes yield 0 so a resized ROI cannot spike the
// motion score.
func absDiffMean(a, b plane) float64 {
	if a.w != b.w || a.h != b.h || a.empty() {
		return 0
	}
	var sum float64
	for i := range a.pix {
		sum += math.Abs(a.pix[i] - b.pix[i])
	}
	return sum / float64(len(a.pix))
}

// exposureClipFraction is the share of pixels crushed to black or blown to
// white.
func exposureClipFraction(p plane) float64 {
	if len(p.pix) == 0 {
		return 1
	}
	var clipped int
	for _, v := range p.pix {
		if v <= 5 || v >= 250 {
			clipped++
		}
	}
	return float64(clipped) / float64(len(p.pix))
}
