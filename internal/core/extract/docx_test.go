package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vharkusha/textract-bot/internal/core/ocr"
)

type fakeOCR struct {
	texts map[string]string
	errs  map[string]error
	langs []string
}

func (f *fakeOCR) Recognize(_ context.Context, image []byte, lang string) (string, error) {
	f.langs = append(f.langs, lang)
	if err, ok := f.errs[string(image)]; ok {
		return "", err
	}
	return f.texts[string(image)], nil
}

func (f *fakeOCR) Name() string { return "fake" }

const docxBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t> world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, media map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(docxBody))
	require.NoError(t, err)

	for name, data := range media {
		w, err := zw.Create("word/media/" + name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestExtractWordDocParagraphs(t *testing.T) {
	d := NewDispatcher(ocr.NewService(&fakeOCR{}))
	path := writeDocx(t, nil)

	text, err := d.extractWordDoc(context.Background(), path, "eng")
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond paragraph\n", text)
}

func TestExtractWordDocRunsOCROverEmbeddedImages(t *testing.T) {
	fake := &fakeOCR{texts: map[string]string{"img-a": "scanned text", "img-b": "more text"}}
	d := NewDispatcher(ocr.NewService(fake))
	path := writeDocx(t, map[string][]byte{
		"image1.png": []byte("img-a"),
		"image2.png": []byte("img-b"),
	})

	text, err := d.extractWordDoc(context.Background(), path, "eng+ukr")
	require.NoError(t, err)
	assert.Contains(t, text, "Hello world\nSecond paragraph\n")
	assert.Contains(t, text, "scanned text\n")
	assert.Contains(t, text, "more text\n")
	assert.Equal(t, []string{"eng+ukr", "eng+ukr"}, fake.langs)
}

func TestExtractWordDocImageFailureBecomesInlineMarker(t *testing.T) {
	fake := &fakeOCR{
		texts: map[string]string{"good": "fine"},
		errs:  map[string]error{"bad": errors.New("engine crashed")},
	}
	d := NewDispatcher(ocr.NewService(fake))
	path := writeDocx(t, map[string][]byte{
		"image1.png": []byte("bad"),
		"image2.png": []byte("good"),
	})

	text, err := d.extractWordDoc(context.Background(), path, "eng")
	require.NoError(t, err)
	assert.Contains(t, text, "[error processing image image1.png: engine crashed]")
	assert.Contains(t, text, "fine\n")
}

func TestExtractWordDocRejectsNonArchive(t *testing.T) {
	d := NewDispatcher(ocr.NewService(&fakeOCR{}))
	path := filepath.Join(t.TempDir(), "junk.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := d.extractWordDoc(context.Background(), path, "eng")
	assert.Error(t, err)
}

func TestExtractImage(t *testing.T) {
	fake := &fakeOCR{texts: map[string]string{"raster": "found text"}}
	d := NewDispatcher(ocr.NewService(fake))

	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(path, []byte("raster"), 0o644))

	text, err := d.extractImage(context.Background(), path, "deu")
	require.NoError(t, err)
	assert.Equal(t, "found text", text)
	assert.Equal(t, []string{"deu"}, fake.langs)
}
