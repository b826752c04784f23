package batch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/must-gpa/chartlet/internal/chart"
)

// pageDPI is the resolution charts are laid out at: one image pixel is
// 72/pageDPI points.
const pageDPI = 100.0

// ErrEmptyBundle is returned when there is nothing to bundle.
var ErrEmptyBundle = errors.New("batch: no charts to bundle")

// Page is one prepared bundle page.
type Page struct {
	RollNumber string
	JPEG       []byte
	Width      int
	Height     int
	Missing    bool
}

// Pages turns fetched items into bundle pages. Every chart is stamped with
// its roll number in the bottom-right corner; a chart that could not be
// fetched or decoded becomes a small card showing the roll number.
func Pages(items []Item) ([]Page, error) {
	pages := make([]Page, 0, len(items))
	for _, it := range items {
		rollNumber := it.Roll.String()

		var img image.Image
		missing := it.Err != nil || len(it.Image) == 0
		if !missing {
			decoded, err := chart.Decode(it.Image)
			if err != nil {
				missing = true
			} else {
				img = chart.Stamp(decoded, rollNumber)
			}
		}
		if missing {
			img = chart.Missing(rollNumber)
		}

		data, err := chart.EncodeJPEG(img)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", rollNumber, err)
		}
		b := img.Bounds()
		pages = append(pages, Page{
			RollNumber: rollNumber,
			JPEG:       data,
			Width:      b.Dx(),
			Height:     b.Dy(),
			Missing:    missing,
		})
	}
	return pages, nil
}

// WritePDF lays out one page per chart, each page sized to its image.
func WritePDF(w io.Writer, pages []Page) error {
	if len(pages) == 0 {
		return ErrEmptyBundle
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("chartlet", true)

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	for i, p := range pages {
		wd := float64(p.Width) * 72 / pageDPI
		ht := float64(p.Height) * 72 / pageDPI
		name := "chart-" + strconv.Itoa(i)

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: wd, Ht: ht})
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(p.JPEG))
		pdf.ImageOptions(name, 0, 0, wd, ht, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("pdf page %s: %w", p.RollNumber, err)
		}
	}

	return pdf.Output(w)
}

// Bundle is Pages followed by WritePDF.
func Bundle(w io.Writer, items []Item) error {
	pages, err := Pages(items)
	if err != nil {
		return err
	}
	return WritePDF(w, pages)
}
