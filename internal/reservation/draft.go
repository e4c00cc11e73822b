// Package reservation holds the submission-side state of the public form: an
// immutable Draft, one transition per user action, and the validation gate run
// before anything is sent to the intake endpoint.
package reservation

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/models"
)

// DateLayout is the wire format of desired dates.
const DateLayout = "2006-01-02"

// Draft is the in-progress form. Every transition returns a new Draft and
// leaves the receiver untouched.
type Draft struct {
	reservationType string
	studentName     string
	grade           string
	schoolName      string
	parentPhone     string
	parentName      string
	mathLevel       string
	examScore       string
	examTarget      string
	desiredDate     string
	timeSlot        string
}

// NewDraft starts an empty form, optionally preselecting the reservation type
// passed through the ?type= query parameter. Unknown types are ignored.
func NewDraft(initialType string) Draft {
	d := Draft{parentPhone: EmptyPhone}
	if contains(models.ReservationTypes, initialType) {
		d.reservationType = initialType
	}
	return d
}

// SelectType picks one of the reservation types.
func (d Draft) SelectType(t string) Draft {
	if !contains(models.ReservationTypes, t) {
		return d
	}
	d.reservationType = t
	return d
}

// SetStudentName replaces the student name.
func (d Draft) SetStudentName(name string) Draft {
	d.studentName = name
	return d
}

// SelectGrade picks a grade. The school name is cleared when the school level
// changes, since the typed name no longer matches the derived suffix.
func (d Draft) SelectGrade(grade string) Draft {
	if grade != "" && !contains(models.Grades, grade) {
		return d
	}
	if SchoolSuffix(grade) != SchoolSuffix(d.grade) {
		d.schoolName = ""
	}
	d.grade = grade
	return d
}

// SetSchoolName replaces the free-text part of the school name.
func (d Draft) SetSchoolName(name string) Draft {
	d.schoolName = name
	return d
}

// InputPhone applies a keystroke-level edit of the phone field.
func (d Draft) InputPhone(raw string) Draft {
	d.parentPhone = FormatPhone(raw)
	return d
}

// SetParentName replaces the guardian name.
func (d Draft) SetParentName(name string) Draft {
	d.parentName = name
	return d
}

// SelectLevel picks the current proficiency level.
func (d Draft) SelectLevel(level string) Draft {
	if !contains(models.MathLevels, level) {
		return d
	}
	d.mathLevel = level
	return d
}

// SetExamScore accepts an integer 0-100 or empty; anything else is ignored.
func (d Draft) SetExamScore(raw string) Draft {
	raw = strings.TrimSpace(raw)
	if raw != "" && !validScore(raw) {
		return d
	}
	d.examScore = raw
	return d
}

// SelectTarget picks the learning goal.
func (d Draft) SelectTarget(target string) Draft {
	if !contains(models.ExamTargets, target) {
		return d
	}
	d.examTarget = target
	return d
}

// SetDesiredDate replaces the desired date (YYYY-MM-DD).
func (d Draft) SetDesiredDate(date string) Draft {
	d.desiredDate = strings.TrimSpace(date)
	return d
}

// SelectTimeSlot picks one of the fixed time slots.
func (d Draft) SelectTimeSlot(slot string) Draft {
	if !contains(models.TimeSlots, slot) {
		return d
	}
	d.timeSlot = slot
	return d
}

func (d Draft) ReservationType() string { return d.reservationType }
func (d Draft) StudentName() string     { return d.studentName }
func (d Draft) Grade() string           { return d.grade }
func (d Draft) SchoolName() string      { return d.schoolName }
func (d Draft) ParentPhone() string     { return d.parentPhone }
func (d Draft) ParentName() string      { return d.parentName }
func (d Draft) MathLevel() string       { return d.mathLevel }
func (d Draft) ExamScore() string       { return d.examScore }
func (d Draft) ExamTarget() string      { return d.examTarget }
func (d Draft) DesiredDate() string     { return d.desiredDate }
func (d Draft) TimeSlot() string        { return d.timeSlot }

// SchoolSuffix is the suffix derived from the selected grade.
func (d Draft) SchoolSuffix() string {
	return SchoolSuffix(d.grade)
}

// School is the persisted school name: free text plus suffix, or empty.
func (d Draft) School() string {
	if d.schoolName == "" {
		return ""
	}
	return d.schoolName + d.SchoolSuffix()
}

// ValidationError names the first missing or invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const (
	msgInvalidDate = "희망 날짜 형식이 올바르지 않습니다."
	msgPastDate    = "지난 날짜는 선택할 수 없습니다."
)

// Validate runs the pre-submit gate. today is the submitter's current date.
func (d Draft) Validate(today time.Time) error {
	values := map[string]string{
		"reservation_type":  d.reservationType,
		"student_name":      strings.TrimSpace(d.studentName),
		"grade":             d.grade,
		"desired_date":      d.desiredDate,
		"desired_time_slot": d.timeSlot,
	}
	if PhoneEntered(d.parentPhone) {
		values["parent_phone"] = d.parentPhone
	}
	for _, f := range models.RequiredFields {
		if values[f.Name] == "" {
			return &ValidationError{Field: f.Name, Message: f.Message}
		}
	}

	desired, err := time.Parse(DateLayout, d.desiredDate)
	if err != nil {
		return &ValidationError{Field: "desired_date", Message: msgInvalidDate}
	}
	if desired.Format(DateLayout) < today.Format(DateLayout) {
		return &ValidationError{Field: "desired_date", Message: msgPastDate}
	}
	return nil
}

// Payload assembles the intake request from the draft.
func (d Draft) Payload() dto.CreateReservationRequest {
	return dto.CreateReservationRequest{
		ReservationType:  d.reservationType,
		StudentName:      strings.TrimSpace(d.studentName),
		Grade:            d.grade,
		ParentPhone:      d.parentPhone,
		DesiredDate:      d.desiredDate,
		DesiredTimeSlot:  d.timeSlot,
		School:           d.School(),
		ParentName:       strings.TrimSpace(d.parentName),
		CurrentMathLevel: d.mathLevel,
		RecentExamScore:  AnnotateScore(d.examScore),
		ExamTarget:       d.examTarget,
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
