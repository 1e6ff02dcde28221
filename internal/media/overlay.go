package media

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	// Guest uploads may be webp; register the decoder for imaging.Open.
	_ "golang.org/x/image/webp"
)

// CompositeOverlay draws the overlay asset over the base photo, stretched to
// cover it, and renders an optional caption near the bottom edge. The result
// is written as JPEG.
func (o *Ops) CompositeOverlay(basePath, overlayPath, caption, outPath string) error {
	base, err := imaging.Open(basePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: open base: %v", ErrInvalidMedia, err)
	}

	bounds := base.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	overlay, err := imaging.Open(overlayPath)
	if err != nil {
		return fmt.Errorf("%w: open overlay: %v", ErrInvalidMedia, err)
	}

	fitted := imaging.Fill(overlay, width, height, imaging.Center, imaging.Lanczos)
	combined := imaging.Overlay(base, fitted, image.Pt(0, 0), 1.0)

	var result image.Image = combined
	if caption != "" {
		result = drawCaption(combined, caption)
	}

	if err := imaging.Save(result, outPath, imaging.JPEGQuality(o.config.JPEGQuality)); err != nil {
		return fmt.Errorf("media: save composite: %w", err)
	}
	return nil
}

func drawCaption(img image.Image, caption string) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	dc := gg.NewContext(width, height)
	dc.DrawImage(img, 0, 0)

	fontSize := float64(height) / 18
	if fontSize < 16 {
		fontSize = 16
	}

	if err := dc.LoadFontFace("/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf", fontSize); err != nil {
		if err := dc.LoadFontFace("/System/Library/Fonts/Helvetica.ttc", fontSize); err != nil {
			dc.SetRGB(1, 1, 1)
		}
	}

	x := float64(width) / 2
	y := float64(height) - fontSize

	dc.SetRGBA(0, 0, 0, 0.6)
	dc.DrawStringAnchored(caption, x+2, y+2, 0.5, 1)

	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawStringAnchored(caption, x, y, 0.5, 1)

	return dc.Image()
}
