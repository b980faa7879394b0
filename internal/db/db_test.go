package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/swrite/internal/domain"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL and applies
// the schema. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping database integration tests")
	}

	ctx := context.Background()
	database, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	require.NoError(t, database.ApplySchema(ctx))
	return database
}

func createTestUser(t *testing.T, database *DB) uuid.UUID {
	t.Helper()
	id, err := database.CreateUser(context.Background(),
		"Test User", fmt.Sprintf("%s@example.com", uuid.New()), "")
	require.NoError(t, err)
	return id
}

func createTestJob(t *testing.T, database *DB, userID uuid.UUID) *Job {
	t.Helper()
	job := &Job{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         domain.JobCreated,
		InputType:      domain.InputTextPDF,
		Pipeline:       domain.PipelinePDFFlow,
		RequiresReview: false,
	}
	require.NoError(t, database.CreateJob(context.Background(), job))
	return job
}

func TestUsers(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	email := fmt.Sprintf("%s@example.com", uuid.New())
	id, err := database.CreateUserWithPassword(ctx, "Ada", email, "555-0100", "hash")
	require.NoError(t, err)

	user, err := database.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)
	assert.True(t, user.PasswordSet)

	// Lookup is case and whitespace insensitive.
	byEmail, err := database.GetUserByEmail(ctx, "  "+email+" ")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)

	missing, err := database.GetUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertExternalUser(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, database.UpsertExternalUser(ctx, id))
	// Idempotent on repeat.
	require.NoError(t, database.UpsertExternalUser(ctx, id))

	user, err := database.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.PasswordSet)

	// Upsert must not clobber an existing registered account.
	registered := createTestUser(t, database)
	before, err := database.GetUser(ctx, registered)
	require.NoError(t, err)
	require.NoError(t, database.UpsertExternalUser(ctx, registered))
	after, err := database.GetUser(ctx, registered)
	require.NoError(t, err)
	assert.Equal(t, before.Email, after.Email)
}

func TestJobs(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	userID := createTestUser(t, database)
	job := createTestJob(t, database, userID)

	got, err := database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.JobCreated, got.Status)
	assert.Nil(t, got.LayoutConfig)

	require.NoError(t, database.UpdateJobStatus(ctx, job.ID, domain.JobProcessing))
	got, err = database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobProcessing, got.Status)

	cfg := domain.DefaultLayout()
	cfg.MarginLeft = 72
	require.NoError(t, database.UpdateJobLayout(ctx, job.ID, cfg))
	got, err = database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LayoutConfig)
	assert.Equal(t, 72, got.LayoutConfig.MarginLeft)
}

func TestGetJobForUser_Ownership(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, database)
	other := createTestUser(t, database)
	job := createTestJob(t, database, owner)

	got, err := database.GetJobForUser(ctx, job.ID, owner)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Someone else's job looks exactly like a missing one.
	got, err = database.GetJobForUser(ctx, job.ID, other)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertInputPages(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	job := createTestJob(t, database, createTestUser(t, database))

	pages := []NewPage{
		{PageNumber: 1, Content: "first page", Source: domain.SourcePDFText},
		{PageNumber: 2, Content: "second page", Source: domain.SourcePDFText},
	}
	require.NoError(t, database.InsertInputPages(ctx, job, pages))

	got, err := database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobExtracted, got.Status)
	assert.Equal(t, 2, got.TotalPages)

	stored, err := database.ListPages(ctx, job.ID, []string{domain.PageTypeInput})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.PageCompleted, stored[0].Status)
	assert.Equal(t, len("first page"), stored[0].CharCount)
}

func TestReplacePlannedPages(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	job := createTestJob(t, database, createTestUser(t, database))

	// Initial plan writes output pages without a layout.
	initial := []NewPage{
		{PageNumber: 1, Content: "planned one", Source: domain.SourcePlanner},
		{PageNumber: 2, Content: "planned two", Source: domain.SourcePlanner},
		{PageNumber: 3, Content: "planned three", Source: domain.SourcePlanner},
	}
	require.NoError(t, database.ReplacePlannedPages(ctx, job, domain.PageTypeOutput, initial, nil))

	got, err := database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobPlanned, got.Status)
	assert.Nil(t, got.LayoutConfig)

	// A replan replaces the whole set, under the handwritten role, and
	// stores the layout in the same transaction.
	cfg := domain.DefaultLayout()
	cfg.LineSpacing = "compact"
	replanned := []NewPage{
		{PageNumber: 1, Content: "denser one", Source: domain.SourcePlanner},
		{PageNumber: 2, Content: "denser two", Source: domain.SourcePlanner},
	}
	require.NoError(t, database.ReplacePlannedPages(ctx, job, domain.PageTypeHandwritten, replanned, &cfg))

	pages, err := database.ListPages(ctx, job.ID, domain.PlannedRoles)
	require.NoError(t, err)
	require.Len(t, pages, 2, "prior output pages must be gone")
	for _, p := range pages {
		assert.Equal(t, domain.PageTypeHandwritten, p.PageType)
		assert.Equal(t, domain.PagePlanned, p.Status)
	}

	got, err = database.GetJob(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LayoutConfig)
	assert.Equal(t, "compact", got.LayoutConfig.LineSpacing)
}

func TestPageRenderLifecycle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	job := createTestJob(t, database, createTestUser(t, database))
	require.NoError(t, database.ReplacePlannedPages(ctx, job, domain.PageTypeHandwritten,
		[]NewPage{{PageNumber: 1, Content: "text", Source: domain.SourcePlanner}}, nil))

	page, err := database.GetPlannedPage(ctx, job.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, page)

	require.NoError(t, database.UpdatePageStatus(ctx, page.ID, domain.PageRendering))
	require.NoError(t, database.RecordRenderAttempt(ctx, page.ID, 42, 1))
	require.NoError(t, database.CompletePageRender(ctx, page.ID, "https://blobs/x.png"))

	page, err = database.GetPlannedPage(ctx, job.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.PageRendered, page.Status)
	assert.Equal(t, "https://blobs/x.png", page.ImageURL)
	assert.Equal(t, 1, page.RenderAttempts)
	require.NotNil(t, page.RenderSeed)
	assert.Equal(t, int64(42), *page.RenderSeed)

	missing, err := database.GetPlannedPage(ctx, job.ID, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTryLockJob(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	jobID := uuid.New()

	lock, acquired, err := database.TryLockJob(ctx, jobID)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquiredAgain, err := database.TryLockJob(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, acquiredAgain, "the same job must not be lockable twice")

	lock.Release()

	lock2, acquired, err := database.TryLockJob(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, acquired, "a released lock is reacquirable")
	lock2.Release()
}
