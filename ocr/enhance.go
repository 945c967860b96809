package ocr

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// enhanceThreshold is the fixed binarization cutoff applied after grayscale
// conversion when preprocessing is requested.
const enhanceThreshold = 150

// Enhance converts the image to grayscale and binarizes it with a fixed
// threshold. Recognition engines generally perform better on clean
// black-and-white input for scanned pages.
func Enhance(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y < enhanceThreshold {
				gray.SetGray(x, y, color.Gray{Y: 0})
			} else {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return gray
}
