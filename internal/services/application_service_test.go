package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
	"github.com/justsurfingit/Job-Application-Portal/internal/cleanup"
	"github.com/justsurfingit/Job-Application-Portal/internal/models"
	"github.com/justsurfingit/Job-Application-Portal/internal/storage"
	"github.com/justsurfingit/Job-Application-Portal/internal/validation"
)

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

// memoryRepo mimics the table: unique email, serial ids restarted by
// Truncate.
type memoryRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Application
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, rows: map[uint]models.Application{}}
}

func (r *memoryRepo) Insert(_ context.Context, app *models.Application) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == app.Email {
			return 0, apperrors.New(apperrors.KindDuplicateKey, "An application with this email already exists", nil)
		}
	}
	app.ID = r.nextID
	r.nextID++
	r.rows[app.ID] = *app
	return app.ID, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uint) (*models.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("Application not found")
	}
	return &row, nil
}

func (r *memoryRepo) ListSummaries(_ context.Context) ([]models.ApplicationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ApplicationSummary{}
	for _, row := range r.rows {
		out = append(out, models.ApplicationSummary{
			ID: row.ID, FullName: row.FullName, Email: row.Email, JobRole: row.JobRole,
			SubmissionDate: row.SubmissionDate, Resume: row.Resume, CoverLetter: row.CoverLetter, Status: row.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionDate.After(out[j].SubmissionDate) })
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id uint, status models.Status) (uint, error) {
	if !status.Valid() {
		return 0, apperrors.New(apperrors.KindInvalidStatus, "Invalid status value", nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return 0, apperrors.NotFound("Application not found")
	}
	row.Status = status
	r.rows[id] = row
	return id, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uint) (*models.AttachmentRefs, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, apperrors.NotFound("Application not found")
	}
	delete(r.rows, id)
	return &models.AttachmentRefs{Resume: row.Resume, CoverLetter: row.CoverLetter}, nil
}

func (r *memoryRepo) Truncate(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = map[uint]models.Application{}
	r.nextID = 1
	return nil
}

type recordingCleaner struct {
	refs []string
}

func (c *recordingCleaner) Enqueue(refs ...string) {
	c.refs = append(c.refs, refs...)
}

type failingDeleter struct{}

func (failingDeleter) Delete(string) error { return errors.New("read-only file system") }

func submissionFields(email string) validation.Fields {
	return validation.Fields{
		"full_name": "Asha Verma", "email": email, "mobile": "9876543210",
		"date_of_birth": "1999-04-12", "parent_name": "R. Verma", "gender": "Female",
		"nationality": "Indian", "current_address": "12 MG Road", "permanent_address": "12 MG Road",
		"state": "Karnataka", "city": "Bengaluru", "zipcode": "560001", "emergency_contact": "9123456780",
		"ssc_board": "CBSE", "ssc_year": "2015", "ssc_percentage": "91",
		"job_role": "Backend Engineer", "preferred_location": "Remote", "notice_period": "30 days",
		"skills": "Go, SQL", "experience_status": "Fresher",
	}
}

func pdfUploads(withCover bool) map[string]*Upload {
	uploads := map[string]*Upload{
		FieldResume: {Filename: "cv.pdf", Body: bytes.NewReader(samplePDF)},
	}
	if withCover {
		uploads[FieldCoverLetter] = &Upload{Filename: "letter.pdf", Body: bytes.NewReader(samplePDF)}
	}
	return uploads
}

type fixture struct {
	svc     *ApplicationService
	repo    *memoryRepo
	store   *storage.AttachmentStore
	cleaner *recordingCleaner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := storage.NewAttachmentStore(t.TempDir(), 0, logger)
	require.NoError(t, err)
	repo := newMemoryRepo()
	cleaner := &recordingCleaner{}
	svc := NewApplicationService(repo, store, cleaner, logger)
	return &fixture{svc: svc, repo: repo, store: store, cleaner: cleaner}
}

func storedFiles(t *testing.T, store *storage.AttachmentStore) []string {
	t.Helper()
	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSubmitStoresApplicationAndFiles(t *testing.T) {
	f := newFixture(t)

	id, err := f.svc.Submit(context.Background(), submissionFields("asha@example.com"), pdfUploads(true))
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)

	app, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(app.Resume, "resume-"))
	require.NotNil(t, app.CoverLetter)
	assert.True(t, strings.HasPrefix(*app.CoverLetter, "cover_letter-"))
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Len(t, storedFiles(t, f.store), 2)
	assert.Empty(t, f.cleaner.refs)
}

func TestSubmitWithoutResumeIsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), submissionFields("asha@example.com"), map[string]*Upload{
		FieldCoverLetter: {Filename: "letter.pdf", Body: bytes.NewReader(samplePDF)},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindResumeRequired))
	assert.Len(t, f.cleaner.refs, 1, "saved cover letter should be queued for cleanup")
}

func TestSubmitValidationFailureQueuesSavedFiles(t *testing.T) {
	f := newFixture(t)
	fields := submissionFields("asha@example.com")
	delete(fields, "skills")

	_, err := f.svc.Submit(context.Background(), fields, pdfUploads(true))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"skills"}, appErr.Missing)
	assert.ElementsMatch(t, storedFiles(t, f.store), f.cleaner.refs)
}

func TestSubmitRejectsNonPDFBeforeWriting(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), submissionFields("asha@example.com"), map[string]*Upload{
		FieldResume: {Filename: "cv.pdf", Body: strings.NewReader("<html>not a pdf</html>")},
	})
	assert.True(t, apperrors.Is(err, apperrors.KindUploadRejected))
	assert.Empty(t, storedFiles(t, f.store))
}

func TestSubmitDuplicateEmailKeepsFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, submissionFields("dup@example.com"), pdfUploads(false))
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, submissionFields("dup@example.com"), pdfUploads(false))
	assert.True(t, apperrors.Is(err, apperrors.KindDuplicateKey))
	assert.Len(t, f.cleaner.refs, 1)

	app, err := f.svc.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "dup@example.com", app.Email)
}

func TestSubmitRoundTripsAdditionalEducation(t *testing.T) {
	f := newFixture(t)
	fields := submissionFields("edu@example.com")
	fields["additional_education"] = `[{"institution":"X","qualification":"Y","year":"2020","percentage":"80"}]`

	id, err := f.svc.Submit(context.Background(), fields, pdfUploads(false))
	require.NoError(t, err)

	app, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []models.Education{{Institution: "X", Qualification: "Y", Year: "2020", Percentage: "80"}}, app.AdditionalEducation)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Submit(ctx, submissionFields("s@example.com"), pdfUploads(false))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, id, models.Status("Archived"))
	assert.True(t, apperrors.Is(err, apperrors.KindInvalidStatus))
	app, _ := f.svc.Get(ctx, id)
	assert.Equal(t, models.StatusPending, app.Status)

	_, err = f.svc.UpdateStatus(ctx, id, models.StatusApproved)
	require.NoError(t, err)
	app, _ = f.svc.Get(ctx, id)
	assert.Equal(t, models.StatusApproved, app.Status)
}

func TestDeleteQueuesAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Submit(ctx, submissionFields("d@example.com"), pdfUploads(true))
	require.NoError(t, err)

	deleted, err := f.svc.Delete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, deleted)
	assert.ElementsMatch(t, storedFiles(t, f.store), f.cleaner.refs)
}

func TestDeleteMissingIDQueuesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Delete(context.Background(), 404)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.Empty(t, f.cleaner.refs)
}

func TestDeleteSucceedsWhenFileDeletionFails(t *testing.T) {
	f := newFixture(t)
	logger, hook := test.NewNullLogger()
	queue := cleanup.NewQueue(failingDeleter{}, logger, 8)
	f.svc.Cleanup = queue
	ctx := context.Background()

	id, err := f.svc.Submit(ctx, submissionFields("f@example.com"), pdfUploads(true))
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, id)
	require.NoError(t, err)
	queue.Close()

	assert.Equal(t, int64(2), queue.Failures())
	assert.NotEmpty(t, hook.AllEntries())
	_, err = f.svc.Get(ctx, id)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestClearAllRestartsIdentityAndRemovesFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := f.svc.Submit(ctx, submissionFields(email), pdfUploads(true))
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.ClearAll(ctx))

	summaries, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Empty(t, storedFiles(t, f.store))

	id, err := f.svc.Submit(ctx, submissionFields("c@example.com"), pdfUploads(false))
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	f.svc.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	for _, email := range []string{"first@example.com", "second@example.com"} {
		_, err := f.svc.Submit(ctx, submissionFields(email), pdfUploads(false))
		require.NoError(t, err)
	}

	summaries, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "second@example.com", summaries[0].Email)
}

func TestAttachmentPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Submit(ctx, submissionFields("p@example.com"), pdfUploads(false))
	require.NoError(t, err)

	path, err := f.svc.AttachmentPath(ctx, id, FieldResume)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, data)

	_, err = f.svc.AttachmentPath(ctx, id, FieldCoverLetter)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = f.svc.AttachmentPath(ctx, id, "photo")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.svc.AttachmentPath(ctx, 999, FieldResume)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}
