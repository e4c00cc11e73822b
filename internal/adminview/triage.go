// Package adminview keeps the admin console's view state: the filtered triage
// list with its status summary, and the detail panel with its memo editor.
package adminview

import (
	"context"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
)

// API is the subset of the reservation API the console drives.
type API interface {
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	Get(ctx context.Context, id string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) (*dto.ReservationMutation, error)
	UpdateMemo(ctx context.Context, id, memo string) (*dto.ReservationMutation, error)
}

// Triage is the filtered list view. Every filter change re-fetches from the store.
type Triage struct {
	api    API
	filter models.ReservationFilter
	rows   []models.Reservation
	loaded bool
	err    error
}

// NewTriage constructs an unfiltered, not yet loaded Triage.
func NewTriage(api API) *Triage {
	return &Triage{api: api}
}

// Refresh re-reads the list with the current filters. On failure the
// previously loaded rows stay in place and the error is kept for display.
func (t *Triage) Refresh(ctx context.Context) error {
	rows, err := t.api.List(ctx, t.filter)
	if err != nil {
		t.err = err
		return err
	}
	t.rows = rows
	t.loaded = true
	t.err = nil
	return nil
}

// SetGrade filters by grade; "" removes the constraint.
func (t *Triage) SetGrade(ctx context.Context, grade string) error {
	t.filter.Grade = grade
	return t.Refresh(ctx)
}

// SetStatus filters by status; "" removes the constraint.
func (t *Triage) SetStatus(ctx context.Context, status models.ReservationStatus) error {
	t.filter.Status = status
	return t.Refresh(ctx)
}

// SetDate filters by desired date (YYYY-MM-DD); "" removes the constraint.
func (t *Triage) SetDate(ctx context.Context, date string) error {
	t.filter.DesiredDate = date
	return t.Refresh(ctx)
}

// SetFilter replaces all filters at once and re-fetches once.
func (t *Triage) SetFilter(ctx context.Context, filter models.ReservationFilter) error {
	t.filter = filter
	return t.Refresh(ctx)
}

// Reset clears every filter and re-fetches once.
func (t *Triage) Reset(ctx context.Context) error {
	return t.SetFilter(ctx, models.ReservationFilter{})
}

// Filter returns the active filters.
func (t *Triage) Filter() models.ReservationFilter {
	return t.filter
}

// Rows returns a copy of the loaded rows, newest first.
func (t *Triage) Rows() []models.Reservation {
	out := make([]models.Reservation, len(t.rows))
	copy(out, t.rows)
	return out
}

// Loaded reports whether at least one read has succeeded.
func (t *Triage) Loaded() bool {
	return t.loaded
}

// Err returns the last read failure, cleared by the next successful read.
func (t *Triage) Err() error {
	return t.err
}

// Summary counts the loaded rows per status, all five buckets in display order.
func (t *Triage) Summary() []models.StatusCount {
	return models.Summarize(t.rows)
}

// Open loads the detail view for id.
func (t *Triage) Open(ctx context.Context, id string) (*Detail, error) {
	d := NewDetail(t.api, id)
	return d, d.Load(ctx)
}
