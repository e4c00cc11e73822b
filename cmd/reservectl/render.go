package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/reservation-api/internal/adminview"
	"github.com/noah-isme/reservation-api/internal/models"
)

var (
	statusColors = map[models.ReservationStatus]lipgloss.Color{
		models.StatusReceived:  lipgloss.Color("#B45309"),
		models.StatusContacted: lipgloss.Color("#1D4ED8"),
		models.StatusConfirmed: lipgloss.Color("#7E22CE"),
		models.StatusCompleted: lipgloss.Color("#15803D"),
		models.StatusCancelled: lipgloss.Color("#B91C1C"),
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4B5563"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Width(14)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1D4ED8")).MarginBottom(1)
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#E5E7EB")).
			Padding(0, 1).
			Width(10).
			Align(lipgloss.Center)
	memoStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#E5E7EB")).
			Padding(0, 1)
)

type column struct {
	title string
	width int
}

var listColumns = []column{
	{"이름", 10},
	{"학년", 6},
	{"유형", 16},
	{"연락처", 15},
	{"희망일시", 18},
	{"상태", 10},
	{"신청일", 13},
	{"ID", 36},
}

func statusBadge(status models.ReservationStatus) string {
	return lipgloss.NewStyle().Bold(true).Foreground(statusColors[status]).Render(string(status))
}

// renderSummary draws one card per status in display order.
func renderSummary(counts []models.StatusCount) string {
	cards := make([]string, 0, len(counts))
	for _, c := range counts {
		cards = append(cards, cardStyle.Render(statusBadge(c.Status)+"\n"+strconv.Itoa(c.Count)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderList(w io.Writer, rows []models.Reservation) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("신청 내역이 없습니다."))
		return err
	}

	titles := make([]string, len(listColumns))
	for i, col := range listColumns {
		titles[i] = col.title
	}
	if _, err := fmt.Fprintln(w, tableRow(titles, headerStyle)); err != nil {
		return err
	}
	for _, r := range rows {
		cells := []string{
			r.StudentName,
			r.Grade,
			r.ReservationType,
			r.ParentPhone,
			r.DesiredDate + " " + r.DesiredTimeSlot,
			string(r.Status),
			r.CreatedAt.Local().Format("2006-01-02"),
			r.ID,
		}
		line := tableRow(cells, lipgloss.NewStyle())
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// tableRow lays cells out in fixed display-width columns. Status cells get their badge colour.
func tableRow(cells []string, base lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := listColumns[i].width
		style := base.Width(width + 1)
		if status := models.ReservationStatus(cell); status.Valid() {
			style = style.Foreground(statusColors[status]).Bold(true)
		}
		parts[i] = style.Render(truncate(cell, width))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > width-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}

func renderDetail(w io.Writer, detail *adminview.Detail) error {
	r := detail.Reservation()
	fields := []struct {
		label string
		value string
	}{
		{"신청 유형", r.ReservationType},
		{"학생 이름", r.StudentName},
		{"학년", r.Grade},
		{"학교", models.StringValue(r.School)},
		{"보호자 연락처", r.ParentPhone},
		{"보호자 이름", models.StringValue(r.ParentName)},
		{"수학 수준", models.StringValue(r.CurrentMathLevel)},
		{"최근 성적", models.StringValue(r.RecentExamScore)},
		{"학습 목표", models.StringValue(r.ExamTarget)},
		{"희망 날짜", r.DesiredDate},
		{"희망 시간", r.DesiredTimeSlot},
		{"신청일", r.CreatedAt.Local().Format("2006-01-02 15:04")},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(r.StudentName+" 학생 신청 정보") + "\n")
	for _, f := range fields {
		value := f.value
		if value == "" {
			value = mutedStyle.Render("-")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(f.label), value) + "\n")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("상태"), statusBadge(r.Status)) + "\n\n")

	b.WriteString(headerStyle.Render("관리자 메모") + "\n")
	memo := models.StringValue(r.AdminMemo)
	if memo == "" {
		memo = mutedStyle.Render("작성된 메모가 없습니다.")
	}
	b.WriteString(memoStyle.Render(memo) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
