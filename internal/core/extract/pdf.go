package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF walks the document page by page: the page's native text layer
// is taken verbatim, then every embedded raster image on that page is OCRed
// and its text appended. Pages concatenate in document order.
func (d *Dispatcher) extractPDF(ctx context.Context, path, lang string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	// Images come via a second, pdfcpu parse of the same file. A document
	// whose text layer reads fine may still fail this stricter parse;
	// that degrades to text-only extraction rather than failing the file.
	pdfCtx := d.openForImages(path)

	var sb strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", page+1, err)
		}
		sb.WriteString(text)

		if pdfCtx == nil {
			continue
		}
		for _, img := range pageImages(pdfCtx, page+1) {
			data, err := io.ReadAll(img)
			if err != nil {
				return "", fmt.Errorf("pdf page %d image: %w", page+1, err)
			}
			recognized, err := d.ocr.Recognize(ctx, data, lang)
			if err != nil {
				return "", fmt.Errorf("ocr image on pdf page %d: %w", page+1, err)
			}
			sb.WriteString(recognized)
		}
	}
	return sb.String(), nil
}

func (d *Dispatcher) openForImages(path string) *model.Context {
	f, err := os.Open(path)
	if err != nil {
		d.logger.Warn().Err(err).Str("file", path).Msg("pdf reopen for image extraction failed")
		return nil
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		d.logger.Warn().Err(err).Str("file", path).Msg("pdfcpu parse failed, extracting text layer only")
		return nil
	}
	return pdfCtx
}

// pageImages returns the page's embedded raster images in object-number
// order so output is deterministic.
func pageImages(pdfCtx *model.Context, pageNr int) []model.Image {
	images, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
	if err != nil || len(images) == 0 {
		return nil
	}

	objNrs := make([]int, 0, len(images))
	for objNr := range images {
		objNrs = append(objNrs, objNr)
	}
	sort.Ints(objNrs)

	out := make([]model.Image, 0, len(images))
	for _, objNr := range objNrs {
		out = append(out, images[objNr])
	}
	return out
}
