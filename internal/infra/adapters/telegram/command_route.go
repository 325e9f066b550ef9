package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/usecase"
)

// handleMessage forwards text to the intake use case. Classification of
// commands and prompts happens there, not here.
func (r *RealTelegramBotAdapter) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		// stickers, photos, voice notes
		return r.SendMessage(ctx, message.Chat.ID, "Please send a text description of the video you want.")
	}
	return r.dispatch(ctx, message.Chat.ID, text)
}

func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, chatID int64, text string) error {
	ch := ReplyChannel(chatID)
	ctx = logging.WithRequester(ctx, ch)

	reply, err := r.intake.HandleMessage(ctx, usecase.InboundMessage{
		Channel:      "telegram",
		Requester:    ch,
		ReplyChannel: ch,
		Text:         text,
	})
	if err != nil {
		logging.With(ctx, r.log).Error().Err(err).Msg("intake failed")
		if reply.Text == "" {
			return err
		}
	}

	if rows := replyButtons(reply.Intent); rows != nil {
		return r.SendButtons(ctx, chatID, reply.Text, rows)
	}
	return r.SendMessage(ctx, chatID, reply.Text)
}

// replyButtons attaches quick actions to the replies where they help.
func replyButtons(kind usecase.IntentKind) [][]InlineButton {
	switch kind {
	case usecase.IntentHelp, usecase.IntentTooShort:
		return [][]InlineButton{
			{{Text: "💡 Examples", Data: "cmd:example"}},
			{{Text: "📊 Status", Data: "cmd:status"}, {Text: "📋 Queue", Data: "cmd:queue"}},
		}
	case usecase.IntentGenerate:
		return [][]InlineButton{
			{{Text: "📊 Status", Data: "cmd:status"}, {Text: "📋 Queue", Data: "cmd:queue"}},
		}
	}
	return nil
}
