package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/swrite/internal/domain"
)

// fakeProber returns canned page texts or an error.
type fakeProber struct {
	texts []string
	err   error
}

func (f *fakeProber) PageTexts(_ []byte, _ int) ([]string, error) {
	return f.texts, f.err
}

func TestFile_TextPDF(t *testing.T) {
	c := New(&fakeProber{texts: []string{"This page has a real embedded text layer."}})

	result, err := c.File("document.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, domain.InputTextPDF, result.InputType)
	assert.Equal(t, domain.PipelinePDFFlow, result.Pipeline)
	assert.False(t, result.RequiresReview)
}

func TestFile_ScannedPDF_NoTextLayer(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
	}{
		{"empty pages", []string{"", "", ""}},
		{"whitespace only", []string{"   \n\t  "}},
		{"below threshold", []string{"short"}},
		{"no pages", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeProber{texts: tt.texts})

			result, err := c.File("scan.pdf", []byte("%PDF-1.4"))
			require.NoError(t, err)
			assert.Equal(t, domain.InputScannedPDF, result.InputType)
			assert.Equal(t, domain.PipelinePDFFlow, result.Pipeline)
			assert.True(t, result.RequiresReview)
		})
	}
}

func TestFile_ScannedPDF_ProbeFailure(t *testing.T) {
	// A PDF the prober cannot parse is treated as scanned, not rejected.
	c := New(&fakeProber{err: errors.New("malformed xref table")})

	result, err := c.File("broken.pdf", []byte("%PDF-garbage"))
	require.NoError(t, err)
	assert.Equal(t, domain.InputScannedPDF, result.InputType)
	assert.True(t, result.RequiresReview)
}

func TestFile_Images(t *testing.T) {
	c := New(&fakeProber{})

	for _, name := range []string{"note.jpg", "note.JPEG", "note.png", "note.bmp", "note.webp", "note.heic"} {
		t.Run(name, func(t *testing.T) {
			result, err := c.File(name, []byte{0xFF, 0xD8})
			require.NoError(t, err)
			assert.Equal(t, domain.InputImageHandwritten, result.InputType)
			assert.Equal(t, domain.PipelineDirectRewrite, result.Pipeline)
			assert.True(t, result.RequiresReview)
		})
	}
}

func TestFile_UnsupportedType(t *testing.T) {
	c := New(&fakeProber{})

	for _, name := range []string{"notes.txt", "doc.docx", "archive.zip", "noextension"} {
		t.Run(name, func(t *testing.T) {
			_, err := c.File(name, []byte("content"))
			var unsupported *domain.ErrUnsupportedFileType
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, name, unsupported.Filename)
		})
	}
}

func TestFile_InvalidInput(t *testing.T) {
	c := New(&fakeProber{})

	var invalid *domain.ErrInvalidInput

	_, err := c.File("", []byte("pasted text"))
	require.ErrorAs(t, err, &invalid)

	_, err = c.File("empty.pdf", nil)
	require.ErrorAs(t, err, &invalid)
}
