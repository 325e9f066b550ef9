package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-video-queue/internal/config"
	"ai-video-queue/internal/domain"
	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/metrics"
)

// ChannelPrefix marks reply channels served by this adapter.
const ChannelPrefix = "whatsapp:"

var _ adapter.Notifier = (*Client)(nil)

// Client sends WhatsApp messages through the Twilio Messages API.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
	log        *zerolog.Logger
}

func NewClient(cfg config.TwilioConfig, logger *zerolog.Logger) *Client {
	from := cfg.FromNumber
	if !strings.HasPrefix(from, ChannelPrefix) {
		from = ChannelPrefix + from
	}
	l := logger.With().Str("component", "TwilioClient").Logger()
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       from,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        &l,
	}
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Deliver posts one message to the "whatsapp:<E.164>" reply channel.
func (c *Client) Deliver(ctx context.Context, d adapter.Delivery) error {
	err := c.send(ctx, d)
	metrics.IncDelivery("whatsapp", err == nil)
	if err != nil {
		return &domain.DeliveryError{Channel: "whatsapp", Err: err}
	}
	return nil
}

func (c *Client) send(ctx context.Context, d adapter.Delivery) error {
	if !strings.HasPrefix(d.ReplyChannel, ChannelPrefix) || len(d.ReplyChannel) == len(ChannelPrefix) {
		return fmt.Errorf("bad reply channel %q", d.ReplyChannel)
	}

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", d.ReplyChannel)
	form.Set("Body", d.Text)
	if d.MediaURL != "" {
		form.Set("MediaUrl", d.MediaURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("twilio error %d (status %d): %s", ae.Code, resp.StatusCode, ae.Message)
		}
		return fmt.Errorf("twilio status %d", resp.StatusCode)
	}

	var mr messageResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	logging.With(ctx, c.log).Debug().Str("sid", mr.SID).Str("status", mr.Status).Msg("whatsapp message queued")
	return nil
}
