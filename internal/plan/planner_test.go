package plan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/swrite/internal/db"
	"github.com/jonathan/swrite/internal/domain"
)

type fakePlanStore struct {
	pageType string
	pages    []db.NewPage
	layout   *domain.LayoutConfig
	calls    int
	err      error
}

func (f *fakePlanStore) ReplacePlannedPages(_ context.Context, _ *db.Job, pageType string, pages []db.NewPage, layout *domain.LayoutConfig) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.pageType = pageType
	f.pages = pages
	f.layout = layout
	return nil
}

type fakeRasterizer struct {
	images [][]byte
	err    error
	gotMax int
}

func (f *fakeRasterizer) PageImages(_ context.Context, _ []byte, maxPages int) ([][]byte, error) {
	f.gotMax = maxPages
	return f.images, f.err
}

// fakeVision returns one scripted result per call.
type fakeVision struct {
	results [][]PlannedPage
	errs    []error
	calls   int

	gotLayout domain.LayoutConfig
	gotRef    []byte
}

func (f *fakeVision) PlanPages(_ context.Context, _ [][]byte, ref []byte, layout domain.LayoutConfig) ([]PlannedPage, error) {
	i := f.calls
	f.calls++
	f.gotLayout = layout
	f.gotRef = ref
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var pages []PlannedPage
	if i < len(f.results) {
		pages = f.results[i]
	}
	return pages, err
}

func refServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte("ref-sample-bytes")) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func planJob(t *testing.T) *db.Job {
	t.Helper()
	path := filepath.Join(t.TempDir(), "original.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return &db.Job{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Status:           domain.JobExtracted,
		InputType:        domain.InputTextPDF,
		OriginalFilePath: path,
	}
}

func TestPlan_PersistsOutputPages(t *testing.T) {
	srv, _ := refServer(t)
	store := &fakePlanStore{}
	raster := &fakeRasterizer{images: [][]byte{{1}, {2}}}
	vision := &fakeVision{results: [][]PlannedPage{{
		{PageNumber: 1, Content: "page one"},
		{PageNumber: 2, Content: "page two"},
	}}}
	svc := NewService(store, raster, vision, srv.URL)

	job := planJob(t)
	count, err := svc.Plan(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, domain.JobPlanned, job.Status)
	assert.Nil(t, job.LayoutConfig, "initial plan must not store a layout")

	assert.Equal(t, domain.PageTypeOutput, store.pageType)
	assert.Nil(t, store.layout)
	require.Len(t, store.pages, 2)
	assert.Equal(t, domain.SourcePlanner, store.pages[0].Source)
	assert.Equal(t, "page one", store.pages[0].Content)

	assert.Equal(t, maxPlannerPages, raster.gotMax)
	assert.Equal(t, domain.DefaultLayout(), vision.gotLayout)
	assert.Equal(t, []byte("ref-sample-bytes"), vision.gotRef)
}

func TestReplan_StoresLayoutAndHandwrittenPages(t *testing.T) {
	srv, _ := refServer(t)
	store := &fakePlanStore{}
	vision := &fakeVision{results: [][]PlannedPage{{{PageNumber: 1, Content: "denser page"}}}}
	svc := NewService(store, &fakeRasterizer{images: [][]byte{{1}}}, vision, srv.URL)

	cfg := domain.DefaultLayout()
	cfg.MarginLeft = 72
	cfg.LineSpacing = "compact"

	job := planJob(t)
	count, err := svc.Replan(context.Background(), job, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, domain.JobPlanned, job.Status)
	require.NotNil(t, job.LayoutConfig)
	assert.Equal(t, cfg, *job.LayoutConfig)

	assert.Equal(t, domain.PageTypeHandwritten, store.pageType)
	require.NotNil(t, store.layout)
	assert.Equal(t, cfg, *store.layout)
	assert.Equal(t, cfg, vision.gotLayout)
}

func TestPlan_RetriesOnce(t *testing.T) {
	srv, _ := refServer(t)
	store := &fakePlanStore{}
	vision := &fakeVision{
		errs:    []error{errors.New("model overloaded"), nil},
		results: [][]PlannedPage{nil, {{PageNumber: 1, Content: "recovered"}}},
	}
	svc := NewService(store, &fakeRasterizer{images: [][]byte{{1}}}, vision, srv.URL)

	count, err := svc.Plan(context.Background(), planJob(t))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2, vision.calls)
}

func TestPlan_FailsAfterAllAttempts(t *testing.T) {
	srv, _ := refServer(t)
	store := &fakePlanStore{}
	vision := &fakeVision{errs: []error{errors.New("bad output"), errors.New("still bad")}}
	svc := NewService(store, &fakeRasterizer{images: [][]byte{{1}}}, vision, srv.URL)

	job := planJob(t)
	_, err := svc.Plan(context.Background(), job)

	var planErr *domain.ErrPlanningFailed
	require.ErrorAs(t, err, &planErr)
	assert.Equal(t, job.ID, planErr.JobID)
	assert.Equal(t, planAttempts, vision.calls)
	assert.Zero(t, store.calls, "failed planning must not touch the stored page set")
}

func TestPlan_EmptyPageSetIsFailure(t *testing.T) {
	srv, _ := refServer(t)
	store := &fakePlanStore{}
	vision := &fakeVision{results: [][]PlannedPage{{}, {}}}
	svc := NewService(store, &fakeRasterizer{images: [][]byte{{1}}}, vision, srv.URL)

	_, err := svc.Plan(context.Background(), planJob(t))

	var planErr *domain.ErrPlanningFailed
	require.ErrorAs(t, err, &planErr)
	assert.Zero(t, store.calls)
}

func TestPlan_MissingOriginalFile(t *testing.T) {
	srv, _ := refServer(t)
	svc := NewService(&fakePlanStore{}, &fakeRasterizer{}, &fakeVision{}, srv.URL)

	job := planJob(t)
	job.OriginalFilePath = ""
	_, err := svc.Plan(context.Background(), job)

	var planErr *domain.ErrPlanningFailed
	require.ErrorAs(t, err, &planErr)
}

func TestPlan_ReferenceSampleIsCached(t *testing.T) {
	srv, hits := refServer(t)
	vision := &fakeVision{results: [][]PlannedPage{
		{{PageNumber: 1, Content: "a"}},
		{{PageNumber: 1, Content: "b"}},
	}}
	svc := NewService(&fakePlanStore{}, &fakeRasterizer{images: [][]byte{{1}}}, vision, srv.URL)

	_, err := svc.Plan(context.Background(), planJob(t))
	require.NoError(t, err)
	_, err = svc.Plan(context.Background(), planJob(t))
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
}
