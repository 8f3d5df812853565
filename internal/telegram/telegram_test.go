package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ibisbots/internal/config"
	"github.com/set-night/ibisbots/internal/domain"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []*bot.SendMessageParams
	failMode bool
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMode && params.ParseMode != "" {
		return nil, errors.New("can't parse entities")
	}
	copied := *params
	s.sent = append(s.sent, &copied)
	return &models.Message{ID: len(s.sent)}, nil
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{name: "short", text: "hello", maxLen: 10, want: []string{"hello"}},
		{name: "hard cut", text: "abcdefghij", maxLen: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "newline cut", text: "abc\ndefgh", maxLen: 5, want: []string{"abc\n", "defgh"}},
		{name: "runes", text: "ééééé", maxLen: 2, want: []string{"éé", "éé", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage(tt.text, tt.maxLen)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixMarkdown(t *testing.T) {
	if got := FixMarkdown("run `go"); got != "run `go`" {
		t.Fatalf("inline: %q", got)
	}
	if got := FixMarkdown("```\ncode"); got != "```\ncode\n```" {
		t.Fatalf("block: %q", got)
	}
	if got := EscapeMarkdown("first_last*"); got != `first\_last\*` {
		t.Fatalf("escape: %q", got)
	}
}

func TestNotifierRoutesTopics(t *testing.T) {
	sender := &fakeSender{}
	cfg := &config.Config{LogTelegramChatID: -100, LogTopicReward: 7, LogTopicError: 9}
	n := NewNotifier(sender, cfg, func(id string) string { return "https://app.test/" + id })
	n.now = func() time.Time { return time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	n.RewardCreated(ctx, "streak", domain.Reward{ID: "r1", Amount: 1250, Target: domain.Person{FirstName: "Ann"}})
	n.ActivityClosed(ctx, "lastword", domain.Activity{ID: "a1", Title: "Round 3"})
	n.StepFailed(ctx, "story", errors.New("platform down"))

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages (activity topic unset), got %d", len(sender.sent))
	}
	reward := sender.sent[0]
	if reward.MessageThreadID != 7 || !strings.Contains(reward.Text, "$12.50") {
		t.Fatalf("unexpected reward message: %+v", reward)
	}
	kb, ok := reward.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok || kb.InlineKeyboard[0][0].URL != "https://app.test/r1" {
		t.Fatalf("expected reward link button, got %#v", reward.ReplyMarkup)
	}
	if sender.sent[1].MessageThreadID != 9 || !strings.Contains(sender.sent[1].Text, "platform down") {
		t.Fatalf("unexpected error message: %+v", sender.sent[1])
	}
}

func TestNotifierDisabledWithoutChat(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, &config.Config{LogTopicError: 1}, nil)
	n.StepFailed(context.Background(), "streak", errors.New("x"))
	if len(sender.sent) != 0 {
		t.Fatalf("expected no messages, got %d", len(sender.sent))
	}
}

func TestSendLongMessageFallsBackToPlainText(t *testing.T) {
	sender := &fakeSender{failMode: true}
	if err := SendLongMessage(context.Background(), sender, 1, 0, "*bold", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].ParseMode != "" {
		t.Fatalf("expected plain text fallback, got %+v", sender.sent)
	}
}
