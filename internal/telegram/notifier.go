package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
)

// Notifier posts bot events into topics of an ops chat.
type Notifier struct {
	sender Sender
	cfg    *config.Config
	link   func(id string) string
	now    func() time.Time
}

func NewNotifier(sender Sender, cfg *config.Config, link func(id string) string) *Notifier {
	return &Notifier{sender: sender, cfg: cfg, link: link, now: time.Now}
}

type LogType string

const (
	LogTypeError    LogType = "error"
	LogTypeReward   LogType = "reward"
	LogTypeActivity LogType = "activity"
)

func (n *Notifier) Log(ctx context.Context, logType LogType, message string, markup models.ReplyMarkup) {
	if n.cfg.LogTelegramChatID == 0 {
		return
	}
	topicID := n.topicID(logType)
	if topicID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.TelegramSendTimeout)
	defer cancel()

	if err := SendLongMessage(ctx, n.sender, n.cfg.LogTelegramChatID, topicID, message, markup); err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (n *Notifier) RewardCreated(ctx context.Context, botName string, r domain.Reward) {
	name := r.Target.FirstName
	if name == "" {
		name = r.Target.Username
	}
	msg := fmt.Sprintf("🎁 *Reward*\n\n*Bot:* %s\n*To:* %s\n*Amount:* %s",
		EscapeMarkdown(botName), EscapeMarkdown(name), domain.FormatAmount(r.Amount))
	n.Log(ctx, LogTypeReward, msg, n.openButton("Open reward", r.ID))
}

func (n *Notifier) ActivityClosed(ctx context.Context, botName string, a domain.Activity) {
	msg := fmt.Sprintf("📕 *Activity closed*\n\n*Bot:* %s\n*Title:* %s",
		EscapeMarkdown(botName), EscapeMarkdown(a.Title))
	n.Log(ctx, LogTypeActivity, msg, n.openButton("Open activity", a.ID))
}

func (n *Notifier) StepFailed(ctx context.Context, botName string, err error) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Bot:* %s\n*Error:* `%s`\n*Time:* %s",
		EscapeMarkdown(botName), err.Error(), n.now().Format("2006-01-02 15:04:05"))
	n.Log(ctx, LogTypeError, msg, nil)
}

func (n *Notifier) openButton(text, id string) models.ReplyMarkup {
	if n.link == nil || id == "" {
		return nil
	}
	return InlineKeyboard(ButtonRow(URLButton(text, n.link(id))))
}

func (n *Notifier) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return n.cfg.LogTopicError
	case LogTypeReward:
		return n.cfg.LogTopicReward
	case LogTypeActivity:
		return n.cfg.LogTopicActivity
	default:
		return 0
	}
}
