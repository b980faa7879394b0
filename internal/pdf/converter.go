// Package pdf provides document probing and rasterization on top of MuPDF
// (go-fitz). MuPDF opens both PDFs and common raster image formats, so the
// same converter serves scanned uploads and standalone images.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

// DefaultQuality is the JPEG quality used for rasterized pages.
const DefaultQuality = 85

// Converter rasterizes documents to page images and extracts embedded text.
type Converter struct {
	quality int
}

// NewConverter creates a converter with the default JPEG quality.
func NewConverter() *Converter {
	return &Converter{quality: DefaultQuality}
}

// PageTexts extracts the embedded text of up to maxPages leading pages.
// maxPages <= 0 means all pages.
func (c *Converter) PageTexts(doc []byte, maxPages int) ([]string, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer d.Close()

	n := d.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	texts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		text, err := d.Text(i)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text of page %d: %w", i+1, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// PageImages rasterizes up to maxPages leading pages to JPEG bytes, in page
// order. maxPages <= 0 means all pages. For single-image documents this
// yields one normalized JPEG regardless of the input format.
func (c *Converter) PageImages(ctx context.Context, doc []byte, maxPages int) ([][]byte, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer d.Close()

	n := d.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	images := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := d.Image(i)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d as JPEG: %w", i+1, err)
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}

// PageCount reports how many pages a document holds.
func (c *Converter) PageCount(doc []byte) (int, error) {
	d, err := fitz.NewFromMemory(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to open document: %w", err)
	}
	defer d.Close()
	return d.NumPage(), nil
}
