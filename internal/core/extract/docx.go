package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// extractWordDoc reads a .docx/.doc archive: paragraph text first, one
// paragraph per line, then OCR over every embedded image under word/media.
// A single image failing OCR becomes an inline marker and never aborts the
// remaining images.
func (d *Dispatcher) extractWordDoc(ctx context.Context, filePath, lang string) (string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var sb strings.Builder

	if err := writeDocxParagraphs(&sb, &zr.Reader); err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "word/media/") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		name := path.Base(f.Name)
		data, err := readZipFile(f)
		if err != nil {
			fmt.Fprintf(&sb, "\n[error processing image %s: %v]\n", name, err)
			continue
		}
		text, err := d.ocr.Recognize(ctx, data, lang)
		if err != nil {
			d.logger.Warn().Err(err).Str("image", name).Msg("docx image ocr failed")
			fmt.Fprintf(&sb, "\n[error processing image %s: %v]\n", name, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// writeDocxParagraphs streams word/document.xml, emitting the text runs of
// each paragraph followed by a newline.
func writeDocxParagraphs(sb *strings.Builder, zr *zip.Reader) error {
	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var (
		inParagraph bool
		inTextRun   bool
		para        strings.Builder
	)

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				para.Reset()
			case "t":
				inTextRun = inParagraph
			}

		case xml.CharData:
			if inTextRun {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				if inParagraph {
					inParagraph = false
					sb.WriteString(para.String())
					sb.WriteString("\n")
				}
			}
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
