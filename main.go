package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	ledgerx "github.com/ordino-ai/ordino/agent/ledger"
	loopx "github.com/ordino-ai/ordino/agent/loop"
	orchestratorx "github.com/ordino-ai/ordino/agent/orchestrator"
	promptx "github.com/ordino-ai/ordino/agent/prompt"
	sessionx "github.com/ordino-ai/ordino/agent/session"
	toolx "github.com/ordino-ai/ordino/agent/tool"
	trackerx "github.com/ordino-ai/ordino/agent/tracker"
	configx "github.com/ordino-ai/ordino/pkg/config"
	llmx "github.com/ordino-ai/ordino/pkg/llm"
	_ "github.com/ordino-ai/ordino/pkg/logger/autoload"
	mcpcx "github.com/ordino-ai/ordino/pkg/mcpc"
	telegramx "github.com/ordino-ai/ordino/pkg/telegram"
)

type AppConfig struct {
	QRDir             string        `envconfig:"QR_DIR" split_words:"true" default:"qrcodes"`
	MaxLoopIterations int           `envconfig:"MAX_LOOP_ITERATIONS" split_words:"true" default:"10"`
	TrackInterval     time.Duration `envconfig:"TRACK_INTERVAL" split_words:"true" default:"180s"`
	TrackMaxPolls     int           `envconfig:"TRACK_MAX_POLLS" split_words:"true" default:"10"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")

	// Missing messaging token or backend credentials are startup failures,
	// not runtime errors.
	front := telegramx.MustNew(*configx.MustNew[telegramx.Config]("TELEGRAM"))

	llmCfg := configx.MustNew[llmx.Config]("LLM")
	rotator, err := llmx.NewRotator(llmCfg.APIKeys, llmCfg.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("backend credentials missing")
	}
	backend, err := llmx.NewBackend(*llmCfg, rotator, promptx.System())
	if err != nil {
		log.Fatal().Err(err).Msg("model backend init failed")
	}

	toolService := mcpcx.New(*configx.MustNew[mcpcx.Config]("MCP"))
	if err := toolService.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("tool service connect failed")
	}
	defer toolService.Close()
	if names, err := toolService.ListTools(ctx); err == nil {
		log.Info().Strs("tools", names).Msg("remote operations available")
	}

	store, err := ledgerx.NewStore(*configx.MustNew[ledgerx.Config]("POSTGRES"))
	if err != nil {
		log.Fatal().Err(err).Msg("ledger init failed")
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("ledger schema init failed")
	}

	dispatcher := toolx.NewDispatcher(toolService, store, appCfg.QRDir)
	registry := sessionx.NewRegistry()
	convLoop := loopx.New(backend, dispatcher, toolx.Catalog(), appCfg.MaxLoopIterations)
	manager := trackerx.NewManager(dispatcher, front, appCfg.TrackInterval, appCfg.TrackMaxPolls)
	defer manager.Shutdown()

	service, err := orchestratorx.New(ctx, registry, convLoop, manager, front)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	log.Info().Msg("ordino started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pollUpdates(ctx, front, service)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("update loop failed")
	}
	log.Info().Msg("shutting down")
}

func pollUpdates(ctx context.Context, front *telegramx.Client, service *orchestratorx.Service) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := front.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil || strings.TrimSpace(msg.Text) == "" {
				continue
			}
			userID := strconv.FormatInt(msg.Chat.ID, 10)
			text := strings.TrimSpace(msg.Text)

			// One task per inbound message; per-session ordering is enforced
			// inside the orchestrator.
			go func() {
				_ = front.SendChatAction(ctx, msg.Chat.ID, "typing")
				var err error
				if text == "/start" {
					err = service.HandleStart(ctx, userID)
				} else {
					err = service.HandleMessage(ctx, userID, text)
				}
				if err != nil {
					log.Error().Err(err).Str("user", userID).Msg("message handling failed")
				}
			}()
		}
	}
}
