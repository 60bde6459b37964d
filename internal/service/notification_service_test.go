package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/pkg/config"
)

type recordingMailer struct {
	mu          sync.Mutex
	welcomes    []string
	credentials []string
}

func (m *recordingMailer) SendWelcomeEmail(to, fullName, role, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *recordingMailer) SendPasswordChangeEmail(to, name, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials = append(m.credentials, to)
	return nil
}

func (m *recordingMailer) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.welcomes), len(m.credentials)
}

func TestNotificationServiceDeliversBothEmails(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer, zap.NewNop(), config.NotificationsConfig{Workers: 1, Retries: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	svc.NotifyRegistration("ana@example.com", "Ana Petrova", "Ana", "STUDENT", "supersecret")

	require.Eventually(t, func() bool {
		welcomes, creds := mailer.counts()
		return welcomes == 1 && creds == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotificationServiceNilReceiverIsNoop(t *testing.T) {
	var svc *NotificationService
	assert.NotPanics(t, func() {
		svc.NotifyRegistration("ana@example.com", "Ana Petrova", "Ana", "STUDENT", "supersecret")
	})
}
