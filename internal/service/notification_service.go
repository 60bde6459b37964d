package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
)

// Mailer delivers the outbound notifications triggered by registration.
type Mailer interface {
	SendWelcomeEmail(to, fullName, role, username string) error
	SendPasswordChangeEmail(to, name, password string) error
}

const (
	jobTypeWelcome     = "welcome_email"
	jobTypeCredentials = "credentials_email"
)

type welcomePayload struct {
	To       string
	FullName string
	Role     string
	Username string
}

type credentialsPayload struct {
	To       string
	Name     string
	Password string
}

// NotificationService dispatches registration emails through a
// background queue. Delivery is fire-and-forget: failures are retried a
// bounded number of times and then only logged, they never block or
// fail the write that triggered them.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the service and its worker queue.
func NewNotificationService(mailer Mailer, logger *zap.Logger, cfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle(mailer), jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the queue workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// QueueDepth reports the number of notifications waiting for delivery.
func (s *NotificationService) QueueDepth() int {
	if s == nil {
		return 0
	}
	return s.queue.Depth()
}

// NotifyRegistration enqueues the welcome and credential-notice emails
// for a newly created account. A nil receiver is a no-op so callers can
// run with notifications disabled.
func (s *NotificationService) NotifyRegistration(email, fullName, name, role, password string) {
	if s == nil {
		return
	}
	s.enqueue(jobTypeWelcome, welcomePayload{To: email, FullName: fullName, Role: role, Username: email})
	s.enqueue(jobTypeCredentials, credentialsPayload{To: email, Name: name, Password: password})
}

func (s *NotificationService) enqueue(jobType string, payload interface{}) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobType,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", jobType), zap.Error(err))
	}
}

func (s *NotificationService) handle(mailer Mailer) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		if mailer == nil {
			return nil
		}
		switch payload := job.Payload.(type) {
		case welcomePayload:
			return mailer.SendWelcomeEmail(payload.To, payload.FullName, payload.Role, payload.Username)
		case credentialsPayload:
			return mailer.SendPasswordChangeEmail(payload.To, payload.Name, payload.Password)
		default:
			return fmt.Errorf("unknown notification job type %q", job.Type)
		}
	}
}
