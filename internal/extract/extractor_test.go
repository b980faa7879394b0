package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
)

type fakeExtractStore struct {
	inserted  []db.NewPage
	jobStatus string
	insertErr error
}

func (f *fakeExtractStore) InsertInputPages(_ context.Context, _ *db.Job, pages []db.NewPage) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = pages
	return nil
}

func (f *fakeExtractStore) UpdateJobStatus(_ context.Context, _ uuid.UUID, status string) error {
	f.jobStatus = status
	return nil
}

type fakeConverter struct {
	texts     []string
	textsErr  error
	images    [][]byte
	imagesErr error
}

func (f *fakeConverter) PageTexts(_ []byte, _ int) ([]string, error) {
	return f.texts, f.textsErr
}

func (f *fakeConverter) PageImages(_ context.Context, _ []byte, _ int) ([][]byte, error) {
	return f.images, f.imagesErr
}

// fakeOCR transcribes by echoing a tag derived from the image bytes.
type fakeOCR struct {
	err error
}

func (f *fakeOCR) ImageText(_ context.Context, jpeg []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("ocr:%s", jpeg), nil
}

func newJob(inputType string) *db.Job {
	return &db.Job{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Status:    domain.JobProcessing,
		InputType: inputType,
	}
}

func TestExtractJob_TextPDF(t *testing.T) {
	store := &fakeExtractStore{}
	conv := &fakeConverter{texts: []string{"page one text", "page two text"}}
	svc := NewService(store, conv, &fakeOCR{})

	job := newJob(domain.InputTextPDF)
	count, err := svc.ExtractJob(context.Background(), job, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, domain.JobExtracted, job.Status)
	assert.Equal(t, 2, job.TotalPages)

	require.Len(t, store.inserted, 2)
	assert.Equal(t, 1, store.inserted[0].PageNumber)
	assert.Equal(t, "page one text", store.inserted[0].Content)
	assert.Equal(t, domain.SourcePDFText, store.inserted[0].Source)
	assert.Equal(t, 2, store.inserted[1].PageNumber)
}

func TestExtractJob_ScannedPDF_OrderPreserved(t *testing.T) {
	store := &fakeExtractStore{}
	conv := &fakeConverter{images: [][]byte{[]byte("img1"), []byte("img2"), []byte("img3")}}
	svc := NewService(store, conv, &fakeOCR{})

	job := newJob(domain.InputScannedPDF)
	count, err := svc.ExtractJob(context.Background(), job, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, store.inserted, 3)
	for i, p := range store.inserted {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Equal(t, fmt.Sprintf("ocr:img%d", i+1), p.Content, "OCR results must stay in page order")
		assert.Equal(t, domain.SourceOCRPDFPage, p.Source)
	}
}

func TestExtractJob_HandwrittenImage(t *testing.T) {
	store := &fakeExtractStore{}
	conv := &fakeConverter{images: [][]byte{[]byte("photo")}}
	svc := NewService(store, conv, &fakeOCR{})

	job := newJob(domain.InputImageHandwritten)
	count, err := svc.ExtractJob(context.Background(), job, []byte{0xFF, 0xD8})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "ocr:photo", store.inserted[0].Content)
	assert.Equal(t, domain.SourceOCRImage, store.inserted[0].Source)
}

func TestExtractJob_OCRFailureMarksJobFailed(t *testing.T) {
	store := &fakeExtractStore{}
	conv := &fakeConverter{images: [][]byte{[]byte("img1")}}
	svc := NewService(store, conv, &fakeOCR{err: errors.New("quota exceeded")})

	job := newJob(domain.InputScannedPDF)
	_, err := svc.ExtractJob(context.Background(), job, []byte("%PDF"))

	var exErr *domain.ErrExtractionFailed
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, job.ID, exErr.JobID)
	assert.Equal(t, domain.JobFailed, job.Status)
	assert.Equal(t, domain.JobFailed, store.jobStatus)
	assert.Empty(t, store.inserted)
}

func TestExtractJob_UnknownInputType(t *testing.T) {
	store := &fakeExtractStore{}
	svc := NewService(store, &fakeConverter{}, &fakeOCR{})

	job := newJob("spreadsheet")
	_, err := svc.ExtractJob(context.Background(), job, []byte("data"))

	var exErr *domain.ErrExtractionFailed
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, domain.JobFailed, store.jobStatus)
}

func TestExtractJob_InsertFailureMarksJobFailed(t *testing.T) {
	store := &fakeExtractStore{insertErr: errors.New("connection reset")}
	conv := &fakeConverter{texts: []string{"some page text"}}
	svc := NewService(store, conv, &fakeOCR{})

	job := newJob(domain.InputTextPDF)
	_, err := svc.ExtractJob(context.Background(), job, []byte("%PDF"))

	var exErr *domain.ErrExtractionFailed
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, domain.JobFailed, job.Status)
}
