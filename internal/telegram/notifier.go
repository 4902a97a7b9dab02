// Package telegram sends complaint notifications to the administrators'
// Telegram chat.
package telegram

import (
	"context"
	"log"

	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const queueSize = 100

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier turns complaint events into chat messages. Publish only queues;
// Run does the sending, so a slow Telegram API never delays a request.
type Notifier struct {
	Bot       Sender
	ChatID    int64
	Localizer *localization.Localizer
	Lang      string

	queue chan models.ComplaintEvent
}

func NewNotifier(bot Sender, chatID int64, l *localization.Localizer, lang string) *Notifier {
	return &Notifier{
		Bot:       bot,
		ChatID:    chatID,
		Localizer: l,
		Lang:      lang,
		queue:     make(chan models.ComplaintEvent, queueSize),
	}
}

// NewBotNotifier authorizes against the Bot API with token.
func NewBotNotifier(token string, chatID int64, l *localization.Localizer, lang string) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("INFO: Telegram notifier authorized on account %s", bot.Self.UserName)
	return NewNotifier(bot, chatID, l, lang), nil
}

// Notifies reports whether events of type t are sent to the chat.
func Notifies(t models.EventType) bool {
	return t == models.EventSubmitted || t == models.EventStatusChanged
}

// Publish queues ev if it is a notifiable event. A full queue drops it.
func (n *Notifier) Publish(ctx context.Context, ev models.ComplaintEvent) {
	if !Notifies(ev.Type) {
		return
	}
	select {
	case n.queue <- ev:
	default:
		log.Printf("WARNING: Telegram queue full, dropping %s notification for %s", ev.Type, ev.TrackingID)
	}
}

// Run sends queued notifications until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-n.queue:
			if _, err := n.Bot.Send(n.Message(ev)); err != nil {
				log.Printf("ERROR: Failed to send Telegram notification for %s: %v", ev.TrackingID, err)
			}
		}
	}
}

// Message renders ev for the admin chat.
func (n *Notifier) Message(ev models.ComplaintEvent) tgbotapi.MessageConfig {
	vars := map[string]string{
		"id":       ev.TrackingID,
		"title":    ev.Title,
		"category": ev.Category,
		"status":   n.Localizer.GetString(n.Lang, "status."+string(ev.Status)),
	}
	text := n.Localizer.Format(n.Lang, "complaint."+string(ev.Type), vars)
	return tgbotapi.NewMessage(n.ChatID, text)
}
