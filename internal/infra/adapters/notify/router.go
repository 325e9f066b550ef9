package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"ai-video-queue/internal/domain/ports/adapter"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/metrics"
)

var (
	_ adapter.Notifier = (*Router)(nil)
	_ adapter.Notifier = (*LogNotifier)(nil)
)

// Router picks a notifier by the scheme prefix of the reply channel
// ("telegram:", "whatsapp:"). Channels without a registered scheme go to
// the fallback.
type Router struct {
	routes   map[string]adapter.Notifier
	fallback adapter.Notifier
}

func NewRouter(fallback adapter.Notifier) *Router {
	return &Router{routes: make(map[string]adapter.Notifier), fallback: fallback}
}

// Handle registers n for reply channels starting with "<scheme>:".
// Not safe for use after the router starts serving.
func (r *Router) Handle(scheme string, n adapter.Notifier) *Router {
	if n != nil {
		r.routes[strings.ToLower(strings.TrimSuffix(scheme, ":"))] = n
	}
	return r
}

// Deliver forwards d with the channel scheme lowercased, since the
// transports only recognise their own lowercase prefix.
func (r *Router) Deliver(ctx context.Context, d adapter.Delivery) error {
	n, channel := r.route(d.ReplyChannel)
	d.ReplyChannel = channel
	return n.Deliver(ctx, d)
}

func (r *Router) route(channel string) (adapter.Notifier, string) {
	if scheme, rest, ok := strings.Cut(channel, ":"); ok {
		scheme = strings.ToLower(scheme)
		if n, found := r.routes[scheme]; found {
			return n, scheme + ":" + rest
		}
	}
	return r.fallback, channel
}

// LogNotifier writes deliveries to the log. Used for the web page and the
// JSON API, whose callers poll the job instead.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "LogNotifier").Logger()
	return &LogNotifier{log: &l}
}

func (n *LogNotifier) Deliver(ctx context.Context, d adapter.Delivery) error {
	logging.With(ctx, n.log).Info().
		Str("reply_channel", logging.Redact(d.ReplyChannel, false)).
		Str("media_url", d.MediaURL).
		Str("text", d.Text).
		Msg("delivery")
	metrics.IncDelivery("log", true)
	return nil
}
