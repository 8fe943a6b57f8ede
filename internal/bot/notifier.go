package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/workflow"
)

// Sender — часть Bot API, через которую уходят сообщения.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Channel — канал персонала: @username или числовой идентификатор чата.
type Channel struct {
	ID       int64
	Username string
}

// ParseChannel разбирает значение CHANNEL_ID.
func ParseChannel(raw string) (Channel, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return Channel{}, errors.New("staff channel is not configured")
	case strings.HasPrefix(raw, "@"):
		return Channel{Username: raw}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Channel{}, fmt.Errorf("parse channel id %q: %w", raw, err)
	}
	return Channel{ID: id}, nil
}

func (c Channel) String() string {
	if c.Username != "" {
		return c.Username
	}
	return strconv.FormatInt(c.ID, 10)
}

// Notifier публикует заказы в канал персонала и помечает обработанные.
type Notifier struct {
	sender  Sender
	channel Channel
	loc     *time.Location
	logger  *log.Entry
}

// NewNotifier создаёт уведомитель канала персонала.
func NewNotifier(sender Sender, channel Channel, loc *time.Location, logger *log.Entry) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = log.WithField("component", "notifier")
	}
	return &Notifier{sender: sender, channel: channel, loc: loc, logger: logger}
}

// Announce отправляет заказ с кнопками действий персонала.
func (n *Notifier) Announce(ctx context.Context, order domain.Order) (workflow.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return workflow.MessageRef{}, err
	}

	var msg tgbotapi.MessageConfig
	if n.channel.Username != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel.Username, announcementText(order, n.loc))
	} else {
		msg = tgbotapi.NewMessage(n.channel.ID, announcementText(order, n.loc))
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = staffKeyboard(order.ID)

	sent, err := n.sender.Send(msg)
	if err != nil {
		return workflow.MessageRef{}, fmt.Errorf("send order %d to %s: %w", order.ID, n.channel, err)
	}

	ref := workflow.MessageRef{MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	n.logger.WithFields(log.Fields{
		"order_id":   order.ID,
		"channel":    n.channel.String(),
		"message_id": sent.MessageID,
	}).Info("order announced to staff channel")
	return ref, nil
}

// MarkActioned переписывает сообщение: исходный текст заказа плюс одна строка аудита.
// Текст строится заново из заказа, поэтому повторный вызов не накапливает строки.
// После печати и отмены кнопки убираются, после подтверждения остаются.
func (n *Notifier) MarkActioned(ctx context.Context, ref workflow.MessageRef, order domain.Order, action workflow.ActionKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	text := announcementText(order, n.loc)
	if line := auditLine(action); line != "" {
		text += "\n\n" + line
	}

	var edit tgbotapi.EditMessageTextConfig
	if action == workflow.ActionConfirm {
		edit = tgbotapi.NewEditMessageTextAndMarkup(ref.ChatID, ref.MessageID, text, staffKeyboard(order.ID))
	} else {
		edit = tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML

	if _, err := n.sender.Request(edit); err != nil {
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("edit staff message %d: %w", ref.MessageID, err)
	}
	return nil
}

var _ workflow.Notifier = (*Notifier)(nil)
