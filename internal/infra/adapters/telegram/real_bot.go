package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"ai-video-queue/internal/usecase"
)

// ChannelPrefix marks reply channels owned by this adapter: "telegram:<chat id>".
const ChannelPrefix = "telegram:"

// botAPI is the part of *tgbotapi.BotAPI we use.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// RealTelegramBotAdapter polls Telegram for messages, hands them to the intake
// use case and sends back the immediate reply.
type RealTelegramBotAdapter struct {
	bot    botAPI
	intake usecase.IntakeUseCase
	log    *zerolog.Logger

	updateWorkers int
}

func NewRealTelegramBotAdapter(token string, intake usecase.IntakeUseCase, updateWorkers int, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newAdapter(bot, intake, updateWorkers, logger)
}

func newAdapter(bot botAPI, intake usecase.IntakeUseCase, updateWorkers int, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if intake == nil {
		return nil, errors.New("intake use case is nil")
	}
	if updateWorkers <= 0 {
		updateWorkers = 4
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		intake:        intake,
		log:           &l,
		updateWorkers: updateWorkers,
	}, nil
}

// StartPolling blocks until ctx is cancelled or the update channel closes.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				close(updateChan)
				wg.Wait()
				return nil
			}
			updateChan <- up
		}
	}
}

// SetMenuCommands publishes the command list shown in Telegram clients.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "help", Description: "How to use the bot"},
		tgbotapi.BotCommand{Command: "status", Description: "What I'm doing for you"},
		tgbotapi.BotCommand{Command: "queue", Description: "Your videos waiting in line"},
		tgbotapi.BotCommand{Command: "example", Description: "Prompt ideas"},
	)
	_, err := r.bot.Request(cfg)
	return err
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// InlineButton is one button of an inline keyboard. Data is sent back as
// callback data when pressed.
type InlineButton struct {
	Text string
	Data string
}

// SendButtons sends a message with an inline keyboard.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			data := btn.Data
			if data == "" {
				data = label
			}
			kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		kbRows = append(kbRows, kr)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if len(kbRows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.Chat == nil {
		return nil
	}
	return r.handleMessage(ctx, update.Message)
}

// ReplyChannel returns the reply channel id for a Telegram chat.
func ReplyChannel(chatID int64) string {
	return ChannelPrefix + strconv.FormatInt(chatID, 10)
}

// ParseReplyChannel extracts the chat id from a "telegram:<id>" reply channel.
func ParseReplyChannel(ch string) (int64, bool) {
	rest, ok := strings.CutPrefix(ch, ChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
