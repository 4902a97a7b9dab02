package telegram_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock

	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, msg)
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, args.Error(0)
}

func (m *MockSender) Sent() []tgbotapi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), m.sent...)
}

func newLocalizer(t *testing.T) *localization.Localizer {
	t.Helper()
	l, err := localization.NewLocalizer("../localization")
	require.NoError(t, err)
	return l
}

func TestNotifier_Message(t *testing.T) {
	// Arrange
	n := telegram.NewNotifier(new(MockSender), 42, newLocalizer(t), "en")
	ev := models.ComplaintEvent{
		Type:       models.EventStatusChanged,
		TrackingID: "CMP-123456",
		Title:      "Leak",
		Status:     models.StatusRejected,
	}

	// Act
	msg := n.Message(ev)

	// Assert
	assert.Equal(t, "Complaint CMP-123456 (Leak) is now rejected.", msg.Text)
}

func TestNotifier_MessageInConfiguredLanguage(t *testing.T) {
	n := telegram.NewNotifier(new(MockSender), 42, newLocalizer(t), "uk")

	msg := n.Message(models.ComplaintEvent{
		Type:       models.EventStatusChanged,
		TrackingID: "CMP-123456",
		Title:      "Leak",
		Status:     models.StatusResolved,
	})

	assert.Contains(t, msg.Text, "вирішено")
}

func TestNotifier_SendsOnlyNotifiableEvents(t *testing.T) {
	// Arrange
	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(nil)
	n := telegram.NewNotifier(sender, 42, newLocalizer(t), "en")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	// Act
	n.Publish(ctx, models.ComplaintEvent{Type: models.EventDeleted, TrackingID: "CMP-000001"})
	n.Publish(ctx, models.ComplaintEvent{Type: models.EventSubmitted, TrackingID: "CMP-000002", Title: "Leak", Category: "Plumbing"})

	// Assert
	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "New complaint CMP-000002: Leak\nCategory: Plumbing", sender.Sent()[0].Text)
}

func TestNotifier_SendErrorDoesNotStopRun(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(errors.New("telegram is down")).Once()
	sender.On("Send", mock.Anything).Return(nil)
	n := telegram.NewNotifier(sender, 42, newLocalizer(t), "en")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.Publish(ctx, models.ComplaintEvent{Type: models.EventSubmitted, TrackingID: "CMP-000001"})
	n.Publish(ctx, models.ComplaintEvent{Type: models.EventSubmitted, TrackingID: "CMP-000002"})

	assert.Eventually(t, func() bool { return len(sender.Sent()) == 2 }, time.Second, 10*time.Millisecond)
}

func TestNotifies(t *testing.T) {
	assert.True(t, telegram.Notifies(models.EventSubmitted))
	assert.True(t, telegram.Notifies(models.EventStatusChanged))
	assert.False(t, telegram.Notifies(models.EventDeleted))
	assert.False(t, telegram.Notifies(models.EventRestored))
	assert.False(t, telegram.Notifies(models.EventPurged))
}
