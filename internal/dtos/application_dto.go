package dtos

import "github.com/justsurfingit/Job-Application-Portal/internal/models"

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

type SubmitResponse struct {
	Success bool `json:"success"`
	ID      uint `json:"id"`
}

type ApplicationResponse struct {
	Success     bool                `json:"success"`
	Application *models.Application `json:"application"`
}

type ApplicationListResponse struct {
	Success      bool                        `json:"success"`
	Applications []models.ApplicationSummary `json:"applications"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
