package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hshinosa/kompetensia-api/internal/models"
	"github.com/hshinosa/kompetensia-api/pkg/jobs"
	"github.com/hshinosa/kompetensia-api/pkg/mailer"
)

// Notification kinds, also used as metric labels.
const (
	NotificationEnrollmentDecided = "enrollment_decided"
	NotificationSubmissionGraded  = "submission_graded"
	NotificationCertificateIssued = "certificate_issued"
)

type mailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#111827;">
<p>Halo {{.Name}},</p>
{{range .Paragraphs}}<p style="line-height:1.6;">{{.}}</p>
{{end}}{{if .Meta}}<table cellpadding="6" style="border:1px solid #e5e7eb;border-collapse:collapse;">
{{range .Meta}}<tr><td style="color:#6b7280;">{{.Label}}</td><td><strong>{{.Value}}</strong></td></tr>
{{end}}</table>{{end}}
<p style="color:#6b7280;font-size:12px;">Pesan ini dikirim otomatis oleh Kompetensia.</p>
</body></html>`))

type noticeField struct {
	Label string
	Value string
}

type notice struct {
	To         string
	Name       string
	Subject    string
	Paragraphs []string
	Meta       []noticeField
}

// NotificationServiceConfig governs the delivery worker pool.
type NotificationServiceConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NotificationService renders lifecycle notices and delivers them through a
// background queue. Lifecycle operations never wait on delivery.
type NotificationService struct {
	sender  mailSender
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. A nil sender disables delivery.
func NewNotificationService(sender mailSender, metrics *MetricsService, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{sender: sender, metrics: metrics, logger: logger}
	if sender != nil {
		svc.queue = jobs.NewQueue("notifications", svc.deliver, jobs.QueueConfig{
			Workers:    cfg.Workers,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return svc
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop waits for in-flight deliveries and drops queued ones.
func (s *NotificationService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// EnrollmentDecided notifies the applicant of an approval or rejection.
func (s *NotificationService) EnrollmentDecided(ctx context.Context, enrollment models.Enrollment) {
	n := notice{To: enrollment.Email, Name: enrollment.FullName}
	switch enrollment.Status {
	case models.EnrollmentStatusApproved:
		n.Subject = "Pendaftaran Anda diterima"
		n.Paragraphs = []string{"Selamat, pendaftaran Anda telah disetujui. Anda sudah dapat mengirimkan tugas."}
	case models.EnrollmentStatusRejected:
		n.Subject = "Pendaftaran Anda ditolak"
		n.Paragraphs = []string{"Mohon maaf, pendaftaran Anda belum dapat kami terima."}
	default:
		return
	}
	if enrollment.AdminNote != nil {
		n.Meta = append(n.Meta, noticeField{Label: "Catatan", Value: *enrollment.AdminNote})
	}
	if window := enrollment.Window(); window.Start != nil {
		n.Meta = append(n.Meta, noticeField{Label: "Mulai", Value: window.Start.Format(dateLayout)})
		if window.End != nil {
			n.Meta = append(n.Meta, noticeField{Label: "Selesai", Value: window.End.Format(dateLayout)})
		}
	}
	s.enqueue(NotificationEnrollmentDecided, enrollment.ID, n)
}

// SubmissionGraded notifies the participant of a grading verdict.
func (s *NotificationService) SubmissionGraded(ctx context.Context, enrollment models.Enrollment, submission models.Submission) {
	n := notice{
		To:         enrollment.Email,
		Name:       enrollment.FullName,
		Subject:    fmt.Sprintf("Tugas #%d telah dinilai", submission.Sequence),
		Paragraphs: []string{"Tugas yang Anda kirimkan telah diperiksa."},
		Meta: []noticeField{
			{Label: "Kategori", Value: models.CategoryLabel(submission.Category)},
			{Label: "Hasil", Value: verdictLabel(submission.Verdict)},
		},
	}
	if submission.Feedback != nil {
		n.Meta = append(n.Meta, noticeField{Label: "Umpan balik", Value: *submission.Feedback})
	}
	s.enqueue(NotificationSubmissionGraded, submission.ID, n)
}

// CertificateIssued notifies the participant that their certificate is available.
func (s *NotificationService) CertificateIssued(ctx context.Context, enrollment models.Enrollment, certificate models.Certificate) {
	s.enqueue(NotificationCertificateIssued, certificate.ID, notice{
		To:         enrollment.Email,
		Name:       enrollment.FullName,
		Subject:    "Sertifikat Anda telah terbit",
		Paragraphs: []string{"Selamat, Anda telah menyelesaikan program dan sertifikat Anda sudah tersedia."},
		Meta: []noticeField{
			{Label: "Tanggal selesai", Value: certificate.CompletionDate.Format(dateLayout)},
			{Label: "Tautan", Value: certificate.CredentialURL},
		},
	})
}

func (s *NotificationService) enqueue(kind, refID string, n notice) {
	if s == nil || s.queue == nil {
		return
	}
	if n.To == "" {
		s.logger.Debug("notification skipped: no recipient", zap.String("type", kind), zap.String("ref_id", refID))
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: kind, Payload: n}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordNotification(kind, err)
		s.logger.Warn("failed to enqueue notification", zap.String("type", kind), zap.String("ref_id", refID), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(notice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	html, err := renderNotice(n)
	if err != nil {
		s.metrics.RecordNotification(job.Type, err)
		s.logger.Error("failed to render notification", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	err = s.sender.Send(ctx, mailer.Message{To: []string{n.To}, Subject: n.Subject, HTML: html})
	s.metrics.RecordNotification(job.Type, err)
	return err
}

func renderNotice(n notice) (string, error) {
	var buf bytes.Buffer
	if err := noticeTemplate.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func verdictLabel(v models.Verdict) string {
	switch v {
	case models.VerdictApproved:
		return "Diterima"
	case models.VerdictRejected:
		return "Ditolak"
	default:
		return "Menunggu"
	}
}
