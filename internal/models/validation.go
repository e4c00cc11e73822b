package models

// RequiredField is a reservation field that must be present before insert,
// together with the message shown when it is missing.
type RequiredField struct {
	Name    string
	Message string
}

// RequiredFields is ordered the way the form presents them; the first missing
// field is the one reported.
var RequiredFields = []RequiredField{
	{Name: "reservation_type", Message: "신청 유형을 선택해주세요."},
	{Name: "student_name", Message: "학생 이름을 입력해주세요."},
	{Name: "grade", Message: "학년을 선택해주세요."},
	{Name: "parent_phone", Message: "보호자 연락처를 입력해주세요."},
	{Name: "desired_date", Message: "희망 날짜를 선택해주세요."},
	{Name: "desired_time_slot", Message: "희망 시간대를 선택해주세요."},
}

// RequiredFieldMessage returns the user-facing message for a missing field.
func RequiredFieldMessage(name string) string {
	for _, f := range RequiredFields {
		if f.Name == name {
			return f.Message
		}
	}
	return "필수 항목을 입력해주세요."
}
