package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/mailersend/mailersend-go"
	"go.uber.org/zap"

	"github.com/noah-isme/reservation-api/internal/models"
	"github.com/noah-isme/reservation-api/pkg/jobs"
)

const notificationJobType = "reservation.notify"

// EmailMessage is a rendered transactional email.
type EmailMessage struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
	Text      string
}

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// MailersendSender sends email through the MailerSend API.
type MailersendSender struct {
	client *mailersend.Mailersend
	logger *zap.Logger
}

// NewMailersendSender constructs a sender authenticated with apiKey.
func NewMailersendSender(apiKey string, logger *zap.Logger) *MailersendSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailersendSender{client: mailersend.NewMailersend(apiKey), logger: logger}
}

// Send implements EmailSender.
func (s *MailersendSender) Send(ctx context.Context, msg EmailMessage) error {
	message := s.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: msg.FromName, Email: msg.FromEmail})
	message.SetRecipients([]mailersend.Recipient{{Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetHTML(msg.HTML)
	if msg.Text != "" {
		message.SetText(msg.Text)
	}

	res, err := s.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Debug("email accepted", zap.String("message_id", res.Header.Get("X-Message-Id")))
	return nil
}

// NotificationConfig addresses staff notifications.
type NotificationConfig struct {
	FromName   string
	FromEmail  string
	StaffEmail string
}

type notificationRow struct {
	Label  string
	Value  string
	Strong bool
}

var notificationTemplate = template.Must(template.New("reservation").Parse(`<div style="font-family: 'Apple SD Gothic Neo', 'Malgun Gothic', sans-serif; max-width: 500px; margin: 0 auto; padding: 24px;">
<h2 style="color: #1d4ed8; margin-bottom: 20px;">새로운 예약이 접수되었습니다</h2>
<table style="width: 100%; border-collapse: collapse;">
{{- range .}}
<tr>
<td style="padding: 10px; border-bottom: 1px solid #e5e7eb; color: #6b7280; width: 120px;">{{.Label}}</td>
<td style="padding: 10px; border-bottom: 1px solid #e5e7eb;{{if .Strong}} font-weight: 600;{{end}}">{{.Value}}</td>
</tr>
{{- end}}
</table>
<p style="margin-top: 20px; color: #9ca3af; font-size: 13px;">관리자 페이지에서 상세 내용을 확인하세요.</p>
</div>`))

// NotificationService composes and sends the staff email for a new reservation.
type NotificationService struct {
	sender  EmailSender
	cfg     NotificationConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService. A nil sender disables delivery.
func NewNotificationService(sender EmailSender, cfg NotificationConfig, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, cfg: cfg, metrics: metrics, logger: logger}
}

// Enabled reports whether a sender and a staff address are configured.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.sender != nil && strings.TrimSpace(s.cfg.StaffEmail) != ""
}

// Compose renders the staff email. Optional fields appear only when present.
func (s *NotificationService) Compose(reservation models.Reservation) (EmailMessage, error) {
	rows := []notificationRow{
		{Label: "신청 유형", Value: reservation.ReservationType, Strong: true},
		{Label: "학생 이름", Value: reservation.StudentName, Strong: true},
		{Label: "학년", Value: reservation.Grade},
	}
	rows = appendOptional(rows, "학교", reservation.School)
	rows = append(rows, notificationRow{Label: "보호자 연락처", Value: reservation.ParentPhone, Strong: true})
	rows = appendOptional(rows, "보호자 이름", reservation.ParentName)
	rows = append(rows,
		notificationRow{Label: "희망 날짜", Value: reservation.DesiredDate},
		notificationRow{Label: "희망 시간", Value: reservation.DesiredTimeSlot},
	)
	rows = appendOptional(rows, "수학 수준", reservation.CurrentMathLevel)
	rows = appendOptional(rows, "최근 성적", reservation.RecentExamScore)
	rows = appendOptional(rows, "학습 목표", reservation.ExamTarget)

	var html bytes.Buffer
	if err := notificationTemplate.Execute(&html, rows); err != nil {
		return EmailMessage{}, fmt.Errorf("render notification: %w", err)
	}

	var text strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&text, "%s: %s\n", row.Label, row.Value)
	}

	return EmailMessage{
		FromName:  s.cfg.FromName,
		FromEmail: s.cfg.FromEmail,
		To:        s.cfg.StaffEmail,
		Subject:   fmt.Sprintf("[새 예약] %s - %s", reservation.StudentName, reservation.ReservationType),
		HTML:      html.String(),
		Text:      text.String(),
	}, nil
}

// Notify sends the staff email for reservation.
func (s *NotificationService) Notify(ctx context.Context, reservation models.Reservation) error {
	if !s.Enabled() {
		return nil
	}
	msg, err := s.Compose(reservation)
	if err != nil {
		s.metrics.RecordNotification(NotificationFailed)
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification(NotificationFailed)
		return err
	}
	s.metrics.RecordNotification(NotificationSent)
	s.logger.Info("reservation notification sent", zap.String("reservation_id", reservation.ID))
	return nil
}

func appendOptional(rows []notificationRow, label string, value *string) []notificationRow {
	if v := strings.TrimSpace(models.StringValue(value)); v != "" {
		return append(rows, notificationRow{Label: label, Value: v})
	}
	return rows
}

// NotificationDispatcher runs notifications on a background queue so the
// intake request never waits on, or fails because of, the email provider.
type NotificationDispatcher struct {
	notifier *NotificationService
	queue    *jobs.Queue
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewNotificationDispatcher wires notifier to a worker queue.
func NewNotificationDispatcher(notifier *NotificationService, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	d := &NotificationDispatcher{notifier: notifier, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("notifications", d.handle, cfg)
	return d
}

// Start begins processing queued notifications. Cancelling ctx does not stop
// the dispatcher; use Shutdown once no request can still dispatch.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for every queued notification to be attempted.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Shutdown drains queued notifications until ctx ends.
func (d *NotificationDispatcher) Shutdown(ctx context.Context) error {
	return d.queue.Shutdown(ctx)
}

// Dispatch queues a notification for reservation. It never blocks and never fails the caller.
func (d *NotificationDispatcher) Dispatch(reservation models.Reservation) {
	if !d.notifier.Enabled() {
		d.metrics.RecordNotification(NotificationDisabled)
		d.logger.Debug("reservation notification disabled", zap.String("reservation_id", reservation.ID))
		return
	}
	if err := d.queue.Enqueue(jobs.Job{ID: reservation.ID, Type: notificationJobType, Payload: reservation}); err != nil {
		d.metrics.RecordNotification(NotificationDropped)
		d.logger.Warn("reservation notification dropped", zap.String("reservation_id", reservation.ID), zap.Error(err))
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	reservation, ok := job.Payload.(models.Reservation)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	return d.notifier.Notify(ctx, reservation)
}
