package reservation

import (
	"strconv"
	"strings"
)

// PhonePrefix is the mobile prefix every guardian number must start with.
const PhonePrefix = "010"

// EmptyPhone is what the phone field shows before any digits are entered.
const EmptyPhone = PhonePrefix + "-"

// ScoreUnit is appended to a bare exam score.
const ScoreUnit = "점"

// SchoolSuffix derives the school-level suffix from the grade's leading category.
func SchoolSuffix(grade string) string {
	switch {
	case strings.HasPrefix(grade, "초"):
		return "초등학교"
	case strings.HasPrefix(grade, "중"):
		return "중학교"
	case strings.HasPrefix(grade, "고"):
		return "고등학교"
	default:
		return ""
	}
}

// FormatPhone reformats arbitrary input as 010-####-####, truncating extra
// digits. Input that does not start with 010 collapses to the bare prefix.
func FormatPhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	nums := digits.String()
	if len(nums) < len(PhonePrefix) || !strings.HasPrefix(nums, PhonePrefix) {
		return EmptyPhone
	}

	rest := nums[len(PhonePrefix):]
	switch {
	case len(rest) == 0:
		return EmptyPhone
	case len(rest) <= 4:
		return EmptyPhone + rest
	case len(rest) > 8:
		rest = rest[:8]
	}
	return EmptyPhone + rest[:4] + "-" + rest[4:]
}

// PhoneEntered reports whether the phone holds more than the bare prefix.
func PhoneEntered(phone string) bool {
	return phone != "" && phone != EmptyPhone
}

// AnnotateScore appends the score unit; empty stays empty.
func AnnotateScore(raw string) string {
	if raw == "" {
		return ""
	}
	return raw + ScoreUnit
}

func validScore(raw string) bool {
	n, err := strconv.Atoi(raw)
	return err == nil && n >= 0 && n <= 100
}
