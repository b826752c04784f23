package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // register decoder for hosts that serve GIF charts
	"image/jpeg"
	_ "image/png" // register decoder for hosts that serve PNG charts

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Placeholder sizes.
const (
	PlaceholderWidth  = 800
	PlaceholderHeight = 600

	MissingWidth  = 200
	MissingHeight = 100

	stampMargin = 10
	jpegQuality = 90
)

var (
	textBlack = image.NewUniform(color.Black)
	textGray  = image.NewUniform(color.Gray{Y: 128})
)

// Placeholder renders the 800x600 JPEG served in place of a missing chart.
func Placeholder(rollNumber string) ([]byte, error) {
	img := blank(PlaceholderWidth, PlaceholderHeight)
	face := basicfont.Face7x13

	title := "GPA Chart for " + rollNumber
	dr := &font.Drawer{Dst: img, Src: textBlack, Face: face}
	w := dr.MeasureString(title).Ceil()
	drawText(img, textBlack, title, (PlaceholderWidth-w)/2, PlaceholderHeight/2-20)
	drawText(img, textGray, "Chart not available", 350, PlaceholderHeight/2+20)

	return EncodeJPEG(img)
}

// Missing returns the small white card used in bundles for a roll whose
// chart could not be fetched. The roll number is centred.
func Missing(rollNumber string) image.Image {
	img := blank(MissingWidth, MissingHeight)
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: img, Src: textBlack, Face: face}
	w := dr.MeasureString(rollNumber).Ceil()
	h := face.Metrics().Height.Ceil()
	drawText(img, textBlack, rollNumber, (MissingWidth-w)/2, (MissingHeight-h)/2)
	return img
}

// Stamp copies img and writes text in its bottom-right corner.
func Stamp(img image.Image, text string) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: textBlack, Face: face}
	w := dr.MeasureString(text).Ceil()
	h := face.Metrics().Height.Ceil()
	drawText(rgba, textBlack, text, b.Dx()-w-stampMargin, b.Dy()-h-stampMargin)
	return rgba
}

// Decode decodes a chart image in any registered format.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}

// IsImage reports whether data starts with a decodable image header.
func IsImage(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// EncodeJPEG encodes img as a JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// drawText draws text with its top-left corner at (x, y).
func drawText(dst draw.Image, src image.Image, text string, x, y int) {
	face := basicfont.Face7x13
	dr := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Metrics().Ascent.Ceil())},
	}
	dr.DrawString(text)
}
