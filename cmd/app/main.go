package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"telegram-pizza-shop/internal/application"
	"telegram-pizza-shop/internal/config"
	"telegram-pizza-shop/internal/domain/model"
	"telegram-pizza-shop/internal/infra/adapters/commerce"
	"telegram-pizza-shop/internal/infra/adapters/geo"
	tele "telegram-pizza-shop/internal/infra/adapters/telegram"
	"telegram-pizza-shop/internal/infra/logging"
	"telegram-pizza-shop/internal/infra/metrics"
	red "telegram-pizza-shop/internal/infra/redis"
	"telegram-pizza-shop/internal/infra/sched"
	"telegram-pizza-shop/internal/infra/web"
	"telegram-pizza-shop/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	// Secrets come from the environment; a local .env is optional.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Redis / snapshot store ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	store := red.NewSnapshotStore(redisClient, cfg.Redis.StoreKey, cfg.Redis.OnFlush, logger)
	if _, err := store.MergeInitial(ctx, model.SharedData{}); err != nil {
		logger.Fatal().Err(err).Msg("snapshot store init")
	}

	// ---- External collaborators ----
	gateway := commerce.New(cfg.Commerce)
	geocoder := geo.New(cfg.Geocoder)

	// ---- Use cases ----
	credUC := usecase.NewCredentialUseCase(gateway, logger)
	cartUC := usecase.NewCartUseCase(gateway)
	custUC := usecase.NewCustomerUseCase(gateway)
	locUC := usecase.NewLocationUseCase(geocoder)
	menuUC := usecase.NewMenuUseCase(store, gateway, credUC, cfg.Menu.PageSize, logger)

	// ---- Telegram ----
	botAPI, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram bot")
	}
	messenger := tele.NewMessenger(botAPI, cfg.Payment.ProviderToken)

	machine := application.NewMachine(
		store, messenger, gateway,
		credUC, cartUC, custUC, locUC, menuUC,
		application.Options{
			RestaurantFlow: cfg.Commerce.RestaurantFlow,
			AddressFlow:    cfg.Commerce.AddressFlow,
			Currency:       cfg.Payment.Currency,
		},
		logger,
	)
	bot := tele.NewBot(botAPI, machine, cfg.Bot.Workers, logger)

	// ---- Background workers ----
	menuWorker := sched.NewMenuWorker(cfg.Menu.RefreshInterval, menuUC, logger)
	go func() {
		if err := menuWorker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("menu worker stopped")
		}
	}()

	// ---- Admin HTTP ----
	adminServer := web.NewServer(cfg.Admin.Port, redisClient, logger)
	go func() {
		if err := adminServer.Start(); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("admin server stopped")
		}
	}()

	go func() {
		logger.Info().Msg("bot started")
		if err := bot.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("polling stopped")
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	cancel()
	bot.StopPolling()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown")
	}
	if err := store.Flush(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("final snapshot flush")
	}
}
