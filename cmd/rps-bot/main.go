package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/rps-kakaotalk-bot/internal/adapter/rpspresenter"
	"github.com/park285/rps-kakaotalk-bot/internal/bot"
	appcfg "github.com/park285/rps-kakaotalk-bot/internal/config"
	"github.com/park285/rps-kakaotalk-bot/internal/irisfast"
	"github.com/park285/rps-kakaotalk-bot/internal/msgcat"
	"github.com/park285/rps-kakaotalk-bot/internal/obslog"
	"github.com/park285/rps-kakaotalk-bot/internal/rps"
	"github.com/park285/rps-kakaotalk-bot/internal/session"
	"github.com/park285/rps-kakaotalk-bot/internal/stats"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	backend, err := stats.OpenBackend(ctx, stats.BackendConfig{
		Kind:        cfg.StatsBackend,
		FilePath:    cfg.StatsFile,
		RedisURL:    cfg.RedisURL,
		RedisKey:    cfg.StatsRedisKey,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		logger.Fatal("stats_backend_error", zap.String("kind", cfg.StatsBackend), zap.Error(err))
	}
	store, err := stats.Open(ctx, backend, logger.Named("stats"))
	if err != nil {
		logger.Fatal("stats_open_error", zap.Error(err))
	}
	logger.Info("stats_ready", zap.String("kind", cfg.StatsBackend), zap.Int("players", store.Len()))

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("messages_error", zap.String("dir", cfg.MessagesDir), zap.Error(err))
	}

	ctrl := session.NewController(store, rps.NewResolver(), catalog, session.Config{Prefix: cfg.BotPrefix}, logger.Named("session"))

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.IrisHeaders))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, logger.Named("ws"))
	ws.SetHeaderProvider(cfg.IrisHeaders)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger.Named("egress"))

	presenter := rpspresenter.NewPresenter(func(room, message string) error {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return egress.SendText(sctx, room, message)
	}, nil)
	router := bot.NewRouter(bot.Config{Prefix: cfg.BotPrefix, RoomAllowed: cfg.RoomAllowed}, ctrl, presenter, catalog, logger.Named("bot"))

	// Off the read loop, one user's messages in order.
	queue := bot.NewKeyedQueue()
	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil {
			return
		}
		queue.Go(msg.UserID(), func() { router.Handle(context.Background(), msg) })
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws_connect_error", zap.String("url", cfg.IrisWSURL), zap.Error(err))
	}
	cancel()
	logger.Info("bot_started", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode), zap.Strings("rooms", cfg.AllowedRooms))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("bot_stopping", zap.String("signal", sig.String()))

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := ws.Close(sctx); err != nil {
		logger.Warn("ws_close_error", zap.Error(err))
	}
	queue.Wait()
	if err := store.Close(sctx); err != nil {
		logger.Error("stats_close_error", zap.Error(err))
	}
}
