package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
	"github.com/noah-isme/reservation-api/internal/reservation"
	appErrors "github.com/noah-isme/reservation-api/pkg/errors"
)

const reservationListCachePrefix = "reservations:list:"

// ReservationRepository describes persistence required by ReservationService.
type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status models.ReservationStatus, updatedAt time.Time) error
	UpdateMemo(ctx context.Context, id string, memo *string, updatedAt time.Time) error
}

// ReservationNotifier hands a stored reservation to the staff notification pipeline.
type ReservationNotifier interface {
	Dispatch(reservation models.Reservation)
}

// ReservationServiceParams groups constructor dependencies.
type ReservationServiceParams struct {
	Repo      ReservationRepository
	Validator *validator.Validate
	Cache     *CacheService
	Metrics   *MetricsService
	Notifier  ReservationNotifier
	Logger    *zap.Logger
	CacheTTL  time.Duration
}

// ReservationService implements intake and admin triage of reservations.
type ReservationService struct {
	repo      ReservationRepository
	validator *validator.Validate
	cache     *CacheService
	metrics   *MetricsService
	notifier  ReservationNotifier
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewReservationService constructs a ReservationService.
func NewReservationService(params ReservationServiceParams) *ReservationService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	return &ReservationService{
		repo:      params.Repo,
		validator: validate,
		cache:     params.Cache,
		metrics:   params.Metrics,
		notifier:  params.Notifier,
		logger:    logger,
		cacheTTL:  params.CacheTTL,
		now:       time.Now,
	}
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// Create validates and stores a new reservation, then queues the staff notification.
// Notification problems never affect the result.
func (s *ReservationService) Create(ctx context.Context, req dto.CreateReservationRequest) (*models.Reservation, error) {
	req = normalizeCreateRequest(req)
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	record := req.ToReservation()
	start := time.Now()
	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error("store reservation", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reservation")
	}
	s.metrics.ObserveDBQuery("reservation_create", time.Since(start))
	s.metrics.RecordReservationCreated(record.ReservationType)
	s.invalidateList(ctx)

	s.logger.Info("reservation created",
		zap.String("reservation_id", record.ID),
		zap.String("reservation_type", record.ReservationType),
		zap.String("desired_date", record.DesiredDate),
	)

	if s.notifier != nil {
		s.notifier.Dispatch(*record)
	}
	return record, nil
}

// List returns reservations matching filter, newest first. The boolean reports a cache hit.
func (s *ReservationService) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, bool, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.DesiredDate != "" {
		if _, err := time.Parse(reservation.DateLayout, filter.DesiredDate); err != nil {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "desiredDate must be YYYY-MM-DD")
		}
	}

	cacheKey := listCacheKey(filter)
	var cached []models.Reservation
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reservations")
	}
	s.metrics.ObserveDBQuery("reservation_list", time.Since(start))

	if err := s.cache.Set(ctx, cacheKey, rows, s.cacheTTL); err != nil {
		s.logger.Warn("cache reservation list", zap.Error(err))
	}
	return rows, false, nil
}

// Get returns a single reservation or NOT_FOUND.
func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservation")
	}
	return record, nil
}

// UpdateStatus sets the status. Any status may follow any other.
func (s *ReservationService) UpdateStatus(ctx context.Context, id string, req dto.UpdateStatusRequest) (*dto.ReservationMutation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status is required")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}

	updatedAt := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, req.Status, updatedAt); err != nil {
		return nil, s.updateError(err, "failed to update status")
	}
	s.metrics.RecordReservationUpdate("status")
	s.invalidateList(ctx)
	s.logger.Info("reservation status updated", zap.String("reservation_id", id), zap.String("status", string(req.Status)))

	return &dto.ReservationMutation{ID: id, Status: req.Status, UpdatedAt: updatedAt}, nil
}

// UpdateMemo replaces the admin memo with the text as typed. An empty memo clears it.
func (s *ReservationService) UpdateMemo(ctx context.Context, id string, req dto.UpdateMemoRequest) (*dto.ReservationMutation, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}

	memo := models.OptionalString(req.AdminMemo)
	updatedAt := s.now().UTC()
	if err := s.repo.UpdateMemo(ctx, id, memo, updatedAt); err != nil {
		return nil, s.updateError(err, "failed to update memo")
	}
	s.metrics.RecordReservationUpdate("memo")
	s.invalidateList(ctx)
	s.logger.Info("reservation memo updated", zap.String("reservation_id", id), zap.Bool("cleared", memo == nil))

	return &dto.ReservationMutation{ID: id, AdminMemo: memo, UpdatedAt: updatedAt}, nil
}

func (s *ReservationService) validateCreate(req dto.CreateReservationRequest) error {
	if err := s.validator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0].Field()
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, models.RequiredFieldMessage(field))
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reservation payload")
	}
	if req.ParentPhone == reservation.EmptyPhone {
		return appErrors.Clone(appErrors.ErrValidation, models.RequiredFieldMessage("parent_phone"))
	}
	return nil
}

func (s *ReservationService) updateError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "reservation not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *ReservationService) invalidateList(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, reservationListCachePrefix+"*"); err != nil {
		s.logger.Warn("invalidate reservation list cache", zap.Error(err))
	}
}

func normalizeCreateRequest(req dto.CreateReservationRequest) dto.CreateReservationRequest {
	req.ReservationType = strings.TrimSpace(req.ReservationType)
	req.StudentName = strings.TrimSpace(req.StudentName)
	req.Grade = strings.TrimSpace(req.Grade)
	req.DesiredDate = strings.TrimSpace(req.DesiredDate)
	req.DesiredTimeSlot = strings.TrimSpace(req.DesiredTimeSlot)
	req.School = strings.TrimSpace(req.School)
	req.ParentName = strings.TrimSpace(req.ParentName)
	req.CurrentMathLevel = strings.TrimSpace(req.CurrentMathLevel)
	req.RecentExamScore = strings.TrimSpace(req.RecentExamScore)
	req.ExamTarget = strings.TrimSpace(req.ExamTarget)
	if req.ParentPhone != "" {
		req.ParentPhone = reservation.FormatPhone(req.ParentPhone)
	}
	return req
}

func listCacheKey(filter models.ReservationFilter) string {
	return fmt.Sprintf("%sgrade=%s:status=%s:date=%s", reservationListCachePrefix, filter.Grade, filter.Status, filter.DesiredDate)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
