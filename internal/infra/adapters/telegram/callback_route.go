package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// cbRoutes maps inline button data to the command text it stands for.
var cbRoutes = map[string]string{
	"cmd:help":    "/help",
	"cmd:status":  "/status",
	"cmd:queue":   "/queue",
	"cmd:example": "/example",
}

var errUnknownCallback = errors.New("unknown callback data")

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	cmd, ok := cbRoutes[strings.TrimSpace(query.Data)]
	if !ok {
		return errUnknownCallback
	}
	return r.dispatch(ctx, chatID, cmd)
}
