package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/campus-apps/coursebook/internal/gradebook"
	"github.com/campus-apps/coursebook/internal/observability"
)

// Telegram posts new regrade requests to a staff chat so instructors see
// disputes without polling the gradebook. Optional; the service runs fine
// without it.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zap.SugaredLogger
}

func NewTelegram(token string, chatID int64, log *zap.SugaredLogger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

func (t *Telegram) RegradeSubmitted(ctx context.Context, n gradebook.RegradeNotice) {
	text := fmt.Sprintf("New regrade request #%d on grade cell %d:\n%s", n.RequestID, n.GradeCellID, n.Reason)
	// Fire and forget; a lost notification is recoverable from the
	// regrades listing.
	go func() {
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
			if isSystemErr(err) {
				observability.CaptureErr(err)
			}
			t.log.Warnw("regrade notification failed", "request_id", n.RequestID, "err", err)
		}
	}()
}

// System-side failures (5xx, 429, timeouts) go to Sentry; telegram
// validation noise does not.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "502") ||
		strings.Contains(s, "503") || strings.Contains(s, "timeout")
}
