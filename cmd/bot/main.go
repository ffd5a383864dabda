package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/vharkusha/textract-bot/internal/config"
	"github.com/vharkusha/textract-bot/internal/core/assemble"
	"github.com/vharkusha/textract-bot/internal/core/conversation"
	"github.com/vharkusha/textract-bot/internal/core/extract"
	"github.com/vharkusha/textract-bot/internal/core/jobs"
	"github.com/vharkusha/textract-bot/internal/core/ocr"
	"github.com/vharkusha/textract-bot/internal/core/staging"
	"github.com/vharkusha/textract-bot/internal/core/telegram"
	"github.com/vharkusha/textract-bot/internal/locale"
	"github.com/vharkusha/textract-bot/internal/server"
	"github.com/vharkusha/textract-bot/internal/services"
	"github.com/vharkusha/textract-bot/internal/session"
	"github.com/vharkusha/textract-bot/internal/shared/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	utils.InitLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("Starting textract-bot")

	if cfg.TelegramToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}

	catalog, err := locale.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load translations")
	}

	store := session.NewStore(cfg.DefaultOCRLang)
	router := conversation.NewRouter(catalog)

	pipeline, err := staging.NewPipeline(cfg.StagingRoot, cfg.MaxFileSize)
	if err != nil {
		log.Fatal().Err(err).Str("root", cfg.StagingRoot).Msg("Failed to prepare staging root")
	}

	var provider ocr.Provider
	switch cfg.OCRProvider {
	case "cli":
		provider = ocr.NewCommandProvider(cfg.TesseractPath)
	default:
		provider = ocr.NewGosseractProvider()
	}
	ocrService := ocr.NewService(provider)
	log.Info().Str("provider", ocrService.Name()).Msg("OCR engine ready")

	dispatcher := extract.NewDispatcher(ocrService)
	assembler := assemble.NewAssembler(catalog)

	client, err := telegram.NewClient(cfg.TelegramToken, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", client.Username()).Msg("Telegram client authorized")

	pool := jobs.NewPool(jobs.Config{
		Concurrency: cfg.WorkerConcurrency,
		QueueSize:   cfg.JobQueueSize,
		Timeout:     cfg.JobTimeout,
	})
	delivery := services.NewDeliveryService(store, catalog, client, dispatcher, assembler, pool)
	pool.RegisterHandler(delivery)

	bot := services.NewBotService(store, router, pipeline, delivery, catalog, client)
	client.SetHandler(bot)

	janitor := services.NewCleanupService(pipeline.Root(), cfg.StagingMaxAge, store.ActiveStagingDirs)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start staging janitor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pool.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start worker pool")
	}

	app := server.New(store)
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Health server stopped")
		}
	}()

	go func() {
		if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Telegram polling stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down...")
	cancel()
	janitor.Stop()
	pool.Stop()
	_ = app.Shutdown()
	log.Info().Msg("Goodbye 👋")
}
