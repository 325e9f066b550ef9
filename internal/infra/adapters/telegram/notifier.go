package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/infra/metrics"
)

var _ adapter.Notifier = (*RealTelegramBotAdapter)(nil)

// Deliver sends a finished video (or a plain notice) to a "telegram:<id>" channel.
// When Telegram cannot fetch the video URL itself, the link is sent as text.
func (r *RealTelegramBotAdapter) Deliver(ctx context.Context, d adapter.Delivery) error {
	chatID, ok := ParseReplyChannel(d.ReplyChannel)
	if !ok {
		return &domain.DeliveryError{Channel: "telegram", Err: fmt.Errorf("bad reply channel %q", d.ReplyChannel)}
	}
	if err := ctx.Err(); err != nil {
		return &domain.DeliveryError{Channel: "telegram", Err: err}
	}

	var err error
	if d.MediaURL == "" {
		_, err = r.bot.Send(tgbotapi.NewMessage(chatID, d.Text))
	} else {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(d.MediaURL))
		video.Caption = d.Text
		video.SupportsStreaming = true
		if _, err = r.bot.Send(video); err != nil {
			r.log.Warn().Err(err).Msg("send video failed; falling back to link")
			_, err = r.bot.Send(tgbotapi.NewMessage(chatID, d.Text+"\n"+d.MediaURL))
		}
	}

	metrics.IncDelivery("telegram", err == nil)
	if err != nil {
		return &domain.DeliveryError{Channel: "telegram", Err: err}
	}
	return nil
}
