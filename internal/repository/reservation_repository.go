package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/reservation-api/internal/models"
)

const reservationColumns = `id, student_name, grade, school, parent_phone, parent_name, current_math_level,
        recent_exam_score, exam_target, reservation_type, to_char(desired_date, 'YYYY-MM-DD') AS desired_date,
        desired_time_slot, status, admin_memo, created_at, updated_at`

// ReservationRepository manages persistence for reservation records.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts a new reservation, assigning its identifier, default status and timestamps.
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	if reservation.Status == "" {
		reservation.Status = models.DefaultStatus
	}
	now := time.Now().UTC()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	const query = `INSERT INTO reservations (id, student_name, grade, school, parent_phone, parent_name, current_math_level,
        recent_exam_score, exam_target, reservation_type, desired_date, desired_time_slot, status, admin_memo, created_at, updated_at)
        VALUES (:id, :student_name, :grade, :school, :parent_phone, :parent_name, :current_math_level,
        :recent_exam_score, :exam_target, :reservation_type, :desired_date, :desired_time_slot, :status, :admin_memo, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reservation); err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// List returns reservations matching the filter, newest first.
func (r *ReservationRepository) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Grade != "" {
		args = append(args, filter.Grade)
		conditions = append(conditions, fmt.Sprintf("grade = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DesiredDate != "" {
		args = append(args, filter.DesiredDate)
		conditions = append(conditions, fmt.Sprintf("desired_date = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s
        FROM reservations WHERE %s ORDER BY created_at DESC`, reservationColumns, strings.Join(conditions, " AND "))

	reservations := []models.Reservation{}
	if err := r.db.SelectContext(ctx, &reservations, query, args...); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

// FindByID fetches a reservation by ID. It returns sql.ErrNoRows when absent.
func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM reservations WHERE id = $1`, reservationColumns)
	var reservation models.Reservation
	if err := r.db.GetContext(ctx, &reservation, query, id); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateStatus sets the status and stamps updated_at.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, updatedAt time.Time) error {
	const query = `UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	return requireRow(res)
}

// UpdateMemo replaces the admin memo and stamps updated_at. A nil memo clears it.
func (r *ReservationRepository) UpdateMemo(ctx context.Context, id string, memo *string, updatedAt time.Time) error {
	const query = `UPDATE reservations SET admin_memo = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, memo, updatedAt)
	if err != nil {
		return fmt.Errorf("update reservation memo: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
