// Package telegram posts operator notifications to a Telegram chat.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/familyalbum/internal/models"
)

// Notifier sends messages to one operator chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *logrus.Logger
}

// NewNotifier creates a notifier for the given bot token and chat.
func NewNotifier(token string, chatID int64, logger *logrus.Logger) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatID, logger)
}

// NewNotifierWithEndpoint is NewNotifier against a custom Bot API endpoint
// of the form "https://host/bot%s/%s".
func NewNotifierWithEndpoint(token, endpoint string, chatID int64, logger *logrus.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Notifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}, nil
}

// SendMessage sends a plain text message to the operator chat
func (n *Notifier) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)

	_, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// NotifyUpgrade announces that a user switched to the paid plan.
func (n *Notifier) NotifyUpgrade(ctx context.Context, user *models.User, via string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("New paid user: %s <%s> (via %s)", user.Name, user.Email, via)
	return n.SendMessage(text)
}
