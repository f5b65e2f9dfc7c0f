package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
	"github.com/justsurfingit/Job-Application-Portal/internal/models"
)

const summaryColumns = "id, full_name, email, job_role, submission_date, resume, cover_letter, status"

type ApplicationRepository struct {
	DB *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

func (r *ApplicationRepository) Insert(ctx context.Context, app *models.Application) (uint, error) {
	education := app.AdditionalEducation
	if education == nil {
		education = []models.Education{}
	}
	raw, err := json.Marshal(education)
	if err != nil {
		return 0, apperrors.Storage("failed to encode additional education", err)
	}
	app.AdditionalEducationJSON = datatypes.JSON(raw)

	if err := r.DB.WithContext(ctx).Create(app).Error; err != nil {
		return 0, mapWriteError(err)
	}
	return app.ID, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Application not found")
	}
	if err != nil {
		return nil, apperrors.Storage("failed to load application", err)
	}
	app.AdditionalEducation = decodeEducation(app.AdditionalEducationJSON)
	return &app, nil
}

// ListSummaries returns every application, most recent submission first.
func (r *ApplicationRepository) ListSummaries(ctx context.Context) ([]models.ApplicationSummary, error) {
	summaries := []models.ApplicationSummary{}
	err := r.DB.WithContext(ctx).
		Model(&models.Application{}).
		Select(summaryColumns).
		Order("submission_date DESC").
		Find(&summaries).Error
	if err != nil {
		return nil, apperrors.Storage("failed to list applications", err)
	}
	return summaries, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uint, status models.Status) (uint, error) {
	if !status.Valid() {
		return 0, apperrors.New(apperrors.KindInvalidStatus, "Invalid status value", nil)
	}
	res := r.DB.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return 0, apperrors.Storage("failed to update status", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.NotFound("Application not found")
	}
	return id, nil
}

// Delete removes the row and returns the attachment references it held.
func (r *ApplicationRepository) Delete(ctx context.Context, id uint) (*models.AttachmentRefs, error) {
	var deleted []models.AttachmentRefs
	err := r.DB.WithContext(ctx).
		Raw("DELETE FROM applications WHERE id = ? RETURNING resume, cover_letter", id).
		Scan(&deleted).Error
	if err != nil {
		return nil, apperrors.Storage("failed to delete application", err)
	}
	if len(deleted) == 0 {
		return nil, apperrors.NotFound("Application not found")
	}
	return &deleted[0], nil
}

// Truncate removes every row and restarts the id sequence.
func (r *ApplicationRepository) Truncate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).Exec("TRUNCATE TABLE applications RESTART IDENTITY").Error; err != nil {
		return apperrors.Storage("failed to clear applications", err)
	}
	return nil
}

func decodeEducation(raw datatypes.JSON) []models.Education {
	education := []models.Education{}
	if len(raw) == 0 {
		return education
	}
	if err := json.Unmarshal(raw, &education); err != nil || education == nil {
		return []models.Education{}
	}
	return education
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			if strings.Contains(pgErr.ConstraintName, "email") || strings.Contains(pgErr.Detail, "email") {
				return apperrors.New(apperrors.KindDuplicateKey, "An application with this email already exists", err)
			}
			return apperrors.New(apperrors.KindDuplicateKey, "Duplicate value", err)
		case strings.HasPrefix(pgErr.Code, "23"):
			return apperrors.New(apperrors.KindConstraintViolation, "Application violates a database constraint", err)
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.New(apperrors.KindDuplicateKey, "Duplicate value", err)
	}
	return apperrors.Storage("failed to insert application", err)
}
