package dto

import (
	"time"

	"github.com/noah-isme/reservation-api/internal/models"
)

// CreateReservationRequest is the intake payload. Required fields are declared
// in form order so the first validation failure matches the form.
type CreateReservationRequest struct {
	ReservationType  string `json:"reservation_type" validate:"required"`
	StudentName      string `json:"student_name" validate:"required"`
	Grade            string `json:"grade" validate:"required"`
	ParentPhone      string `json:"parent_phone" validate:"required"`
	DesiredDate      string `json:"desired_date" validate:"required"`
	DesiredTimeSlot  string `json:"desired_time_slot" validate:"required"`
	School           string `json:"school"`
	ParentName       string `json:"parent_name"`
	CurrentMathLevel string `json:"current_math_level"`
	RecentExamScore  string `json:"recent_exam_score"`
	ExamTarget       string `json:"exam_target"`
}

// ToReservation builds the record to insert; identifier, status and timestamps
// are assigned by the store layer.
func (r CreateReservationRequest) ToReservation() *models.Reservation {
	return &models.Reservation{
		StudentName:      r.StudentName,
		Grade:            r.Grade,
		School:           models.OptionalString(r.School),
		ParentPhone:      r.ParentPhone,
		ParentName:       models.OptionalString(r.ParentName),
		CurrentMathLevel: models.OptionalString(r.CurrentMathLevel),
		RecentExamScore:  models.OptionalString(r.RecentExamScore),
		ExamTarget:       models.OptionalString(r.ExamTarget),
		ReservationType:  r.ReservationType,
		DesiredDate:      r.DesiredDate,
		DesiredTimeSlot:  r.DesiredTimeSlot,
	}
}

// UpdateStatusRequest sets a reservation's status.
type UpdateStatusRequest struct {
	Status models.ReservationStatus `json:"status" validate:"required"`
}

// UpdateMemoRequest replaces the admin memo. An empty memo clears it.
type UpdateMemoRequest struct {
	AdminMemo string `json:"admin_memo"`
}

// ReservationMutation is returned after a status or memo update.
type ReservationMutation struct {
	ID        string                   `json:"id"`
	Status    models.ReservationStatus `json:"status,omitempty"`
	AdminMemo *string                  `json:"admin_memo,omitempty"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ExportFormat selects the rendering of an admin list export.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}
