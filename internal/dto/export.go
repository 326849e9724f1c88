package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ExportJobRequest starts an asynchronous timetable export.
type ExportJobRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=CSV PDF"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job progress.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	ClassID     string              `json:"classId"`
	Format      models.ExportFormat `json:"format"`
	Status      models.ExportStatus `json:"status"`
	DownloadURL *string             `json:"downloadUrl,omitempty"`
	Error       *string             `json:"error,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	FinishedAt  *string             `json:"finishedAt,omitempty"`
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
