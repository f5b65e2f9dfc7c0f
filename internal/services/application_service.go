package services

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
	"github.com/justsurfingit/Job-Application-Portal/internal/metrics"
	"github.com/justsurfingit/Job-Application-Portal/internal/models"
	"github.com/justsurfingit/Job-Application-Portal/internal/validation"
)

const (
	FieldResume      = "resume"
	FieldCoverLetter = "cover_letter"
)

type Repository interface {
	Insert(ctx context.Context, app *models.Application) (uint, error)
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	ListSummaries(ctx context.Context) ([]models.ApplicationSummary, error)
	UpdateStatus(ctx context.Context, id uint, status models.Status) (uint, error)
	Delete(ctx context.Context, id uint) (*models.AttachmentRefs, error)
	Truncate(ctx context.Context) error
}

type AttachmentStore interface {
	Save(field, originalName string, body io.Reader) (string, error)
	Path(ref string) (string, error)
	Clear() (int, error)
}

type Cleaner interface {
	Enqueue(refs ...string)
}

// Upload is one file part of a submission.
type Upload struct {
	Filename string
	Body     io.Reader
}

type ApplicationService struct {
	Repo    Repository
	Store   AttachmentStore
	Cleanup Cleaner
	Log     logrus.FieldLogger
	Now     func() time.Time
}

func NewApplicationService(repo Repository, store AttachmentStore, cleanup Cleaner, log logrus.FieldLogger) *ApplicationService {
	return &ApplicationService{
		Repo:    repo,
		Store:   store,
		Cleanup: cleanup,
		Log:     log.WithField("component", "applications"),
		Now:     time.Now,
	}
}

// Submit stores the uploads, validates the fields and inserts the
// application. Files saved for a submission that is then rejected are
// queued for deletion.
func (s *ApplicationService) Submit(ctx context.Context, fields validation.Fields, uploads map[string]*Upload) (id uint, err error) {
	var saved []string
	defer func() {
		if err != nil {
			s.Cleanup.Enqueue(saved...)
			metrics.RecordSubmission(string(apperrors.KindOf(err)))
			return
		}
		metrics.RecordSubmission("accepted")
	}()

	var refs validation.Attachments
	for _, field := range []string{FieldResume, FieldCoverLetter} {
		up := uploads[field]
		if up == nil {
			continue
		}
		ref, err := s.Store.Save(field, up.Filename, up.Body)
		if err != nil {
			return 0, err
		}
		saved = append(saved, ref)
		if field == FieldResume {
			refs.Resume = ref
		} else {
			refs.CoverLetter = ref
		}
	}

	app, err := validation.Validate(fields, refs, s.Now().UTC())
	if err != nil {
		return 0, err
	}

	id, err = s.Repo.Insert(ctx, app)
	if err != nil {
		return 0, err
	}
	s.Log.WithFields(logrus.Fields{"id": id, "job_role": app.JobRole}).Info("application submitted")
	return id, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.Application, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *ApplicationService) List(ctx context.Context) ([]models.ApplicationSummary, error) {
	return s.Repo.ListSummaries(ctx)
}

func (s *ApplicationService) UpdateStatus(ctx context.Context, id uint, status models.Status) (uint, error) {
	updated, err := s.Repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return 0, err
	}
	s.Log.WithFields(logrus.Fields{"id": id, "status": status}).Info("application status updated")
	return updated, nil
}

// Delete removes the application. Its attachments are deleted in the
// background; a failure there does not affect the result.
func (s *ApplicationService) Delete(ctx context.Context, id uint) (uint, error) {
	refs, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.Cleanup.Enqueue(refs.All()...)
	s.Log.WithField("id", id).Info("application deleted")
	return id, nil
}

// ClearAll empties the table and removes every stored attachment.
func (s *ApplicationService) ClearAll(ctx context.Context) error {
	if err := s.Repo.Truncate(ctx); err != nil {
		return err
	}
	removed, err := s.Store.Clear()
	if err != nil {
		s.Log.WithError(err).Warn("failed to clear attachments")
	}
	s.Log.WithField("files_removed", removed).Info("all applications cleared")
	return nil
}

// AttachmentPath resolves the file behind an application's resume or
// cover letter.
func (s *ApplicationService) AttachmentPath(ctx context.Context, id uint, kind string) (string, error) {
	if kind != FieldResume && kind != FieldCoverLetter {
		return "", apperrors.Validation("Invalid file type")
	}
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	ref := app.Resume
	if kind == FieldCoverLetter {
		ref = ""
		if app.CoverLetter != nil {
			ref = *app.CoverLetter
		}
	}
	if ref == "" {
		return "", apperrors.NotFound("File not found")
	}
	return s.Store.Path(ref)
}
