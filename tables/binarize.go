package tables

import (
	"image"

	"golang.org/x/image/draw"
)

// bitmap is a dense binary image; set pixels are foreground.
type bitmap struct {
	w, h int
	bits []bool
}

func newBitmap(w, h int) *bitmap {
	return &bitmap{w: w, h: h, bits: make([]bool, w*h)}
}

func (b *bitmap) at(x, y int) bool  { return b.bits[y*b.w+x] }
func (b *bitmap) set(x, y int)      { b.bits[y*b.w+x] = true }

// union merges other into b in place. Both bitmaps must share dimensions.
func (b *bitmap) union(other *bitmap) {
	for i, v := range other.bits {
		if v {
			b.bits[i] = true
		}
	}
}

// grayscale renders the image into an 8-bit gray buffer anchored at (0,0).
func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// otsuThreshold picks the cutoff maximizing between-class variance over the
// gray histogram.
func otsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumBack, weightBack float64
	var best float64
	var threshold uint8
	for i := 0; i < 256; i++ {
		weightBack += float64(hist[i])
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(i) * float64(hist[i])
		meanBack := sumBack / weightBack
		meanFore := (sum - sumBack) / weightFore
		diff := meanBack - meanFore
		variance := weightBack * weightFore * diff * diff
		if variance > best {
			best = variance
			threshold = uint8(i)
		}
	}
	return threshold
}

// binarizeInverted thresholds the gray image with Otsu's cutoff, keeping dark
// pixels (strokes) as foreground.
func binarizeInverted(gray *image.Gray) *bitmap {
	threshold := otsuThreshold(gray)
	bounds := gray.Bounds()
	bm := newBitmap(bounds.Dx(), bounds.Dy())
	for y := 0; y < bm.h; y++ {
		for x := 0; x < bm.w; x++ {
			if gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y <= threshold {
				bm.set(x, y)
			}
		}
	}
	return bm
}
