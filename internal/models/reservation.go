package models

import "time"

// ReservationStatus is the triage stage of a reservation. The set is flat:
// any status may be set from any other.
type ReservationStatus string

const (
	StatusReceived  ReservationStatus = "접수"
	StatusContacted ReservationStatus = "연락완료"
	StatusConfirmed ReservationStatus = "확정"
	StatusCompleted ReservationStatus = "완료"
	StatusCancelled ReservationStatus = "취소"
)

// DefaultStatus is assigned to every new reservation.
const DefaultStatus = StatusReceived

// ReservationStatuses lists every status in display order.
var ReservationStatuses = []ReservationStatus{
	StatusReceived,
	StatusContacted,
	StatusConfirmed,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the five known statuses.
func (s ReservationStatus) Valid() bool {
	for _, known := range ReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Reservation types offered on the public form.
const (
	TypeConsultation = "상담 신청"
	TypeLevelTest    = "무료 레벨테스트"
)

var (
	ReservationTypes = []string{TypeConsultation, TypeLevelTest}

	Grades = []string{
		"초1", "초2", "초3", "초4", "초5", "초6",
		"중1", "중2", "중3",
		"고1", "고2", "고3",
	}

	TimeSlots = []string{
		"14:00", "15:00", "16:00", "17:00",
		"18:00", "19:00", "20:00", "21:00",
	}

	MathLevels  = []string{"상", "중", "하"}
	ExamTargets = []string{"내신", "수능", "특목고 대비"}
)

// Reservation is a consultation or placement-test request.
type Reservation struct {
	ID               string            `db:"id" json:"id"`
	StudentName      string            `db:"student_name" json:"student_name"`
	Grade            string            `db:"grade" json:"grade"`
	School           *string           `db:"school" json:"school"`
	ParentPhone      string            `db:"parent_phone" json:"parent_phone"`
	ParentName       *string           `db:"parent_name" json:"parent_name"`
	CurrentMathLevel *string           `db:"current_math_level" json:"current_math_level"`
	RecentExamScore  *string           `db:"recent_exam_score" json:"recent_exam_score"`
	ExamTarget       *string           `db:"exam_target" json:"exam_target"`
	ReservationType  string            `db:"reservation_type" json:"reservation_type"`
	DesiredDate      string            `db:"desired_date" json:"desired_date"`
	DesiredTimeSlot  string            `db:"desired_time_slot" json:"desired_time_slot"`
	Status           ReservationStatus `db:"status" json:"status"`
	AdminMemo        *string           `db:"admin_memo" json:"admin_memo"`
	CreatedAt        time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updated_at"`
}

// ReservationFilter narrows the admin list by exact match. Empty fields do not constrain.
type ReservationFilter struct {
	Grade       string            `json:"grade,omitempty"`
	Status      ReservationStatus `json:"status,omitempty"`
	DesiredDate string            `json:"desired_date,omitempty"`
}

// IsZero reports whether no filter is applied.
func (f ReservationFilter) IsZero() bool {
	return f.Grade == "" && f.Status == "" && f.DesiredDate == ""
}

// StatusCount is one bucket of the admin summary strip.
type StatusCount struct {
	Status ReservationStatus `json:"status"`
	Count  int               `json:"count"`
}

// Summarize counts reservations per status in display order, zero buckets included.
func Summarize(rows []Reservation) []StatusCount {
	counts := make(map[ReservationStatus]int, len(ReservationStatuses))
	for _, r := range rows {
		counts[r.Status]++
	}
	summary := make([]StatusCount, 0, len(ReservationStatuses))
	for _, s := range ReservationStatuses {
		summary = append(summary, StatusCount{Status: s, Count: counts[s]})
	}
	return summary
}

// StringValue dereferences an optional column, returning "" for NULL.
func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// OptionalString maps "" to NULL.
func OptionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
