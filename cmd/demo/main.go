// Command demo runs the whole queue in memory: it submits a few prompts,
// drains them through the dispatcher with the noop generator and prints the
// final job table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"ai-video-queue/internal/config"
	"ai-video-queue/internal/domain/model"
	"ai-video-queue/internal/domain/ports/adapter"
	aiAdapters "ai-video-queue/internal/infra/adapters/ai"
	"ai-video-queue/internal/infra/adapters/notify"
	"ai-video-queue/internal/infra/db/memory"
	"ai-video-queue/internal/infra/i18n"
	"ai-video-queue/internal/infra/logging"
	"ai-video-queue/internal/infra/worker"
	"ai-video-queue/internal/usecase"
)

func main() {
	delay := flag.Duration("delay", 200*time.Millisecond, "simulated generation time per job")
	flag.Parse()

	logger := logging.New(config.LogConfig{Level: "info", Format: "console"}, true)
	ctx := context.Background()

	store := memory.NewJobStore()
	msgs, err := i18n.Default()
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	intake := usecase.NewIntakeUseCase(store, usecase.NewClassifier(10), msgs, nil, nil, logger)
	dispatch := usecase.NewDispatchUseCase(
		store,
		aiAdapters.NewNoopAIAdapter(*delay, logger),
		notify.NewRouter(notify.NewLogNotifier(logger)),
		msgs,
		nil,
		usecase.DispatchOptions{Style: adapter.StyleConfig{
			NegativePrompt: config.DefaultNegativePrompt,
			AspectRatio:    "16:9",
			DurationSecs:   5,
		}},
		logger,
	)

	inbound := []usecase.InboundMessage{
		{Channel: "demo", Requester: "demo:alice", Text: "/help"},
		{Channel: "demo", Requester: "demo:alice", Text: "A robot dancing in the rain"},
		{Channel: "demo", Requester: "demo:bob", Text: "short"},
		{Channel: "demo", Requester: "demo:bob", Text: "A cat playing piano in space"},
		{Channel: "demo", Requester: "demo:alice", Text: "/queue"},
		{Channel: "demo", Requester: "demo:carol", Text: "Timelapse of a city skyline from dusk to night"},
	}
	for _, m := range inbound {
		reply, err := intake.HandleMessage(ctx, m)
		if err != nil {
			logger.Fatal().Err(err).Msg("intake")
		}
		fmt.Printf("%-11s > %s\n%-11s < %s\n\n", m.Requester, m.Text, "", reply.Text)
	}

	pool := worker.NewPool(1, 1, logger)
	pool.Start(ctx)
	defer pool.Stop()
	dw := worker.NewDispatchWorker(time.Hour, dispatch, pool, logger)

	for {
		outcome, err := dw.Trigger(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("dispatch")
		}
		if outcome == usecase.OutcomeIdle {
			break
		}
	}

	jobs, err := store.ListJobs(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list jobs")
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tREQUESTER\tPROMPT\tRESULT")
	for _, j := range jobs {
		v := model.NewJobView(j)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Status, v.Requester, v.Prompt, v.ResultRef)
	}
	_ = tw.Flush()
}
