package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adforge/internal/creative"
	"adforge/internal/http/handlers"
	"adforge/internal/http/httpapi"
	"adforge/internal/infra"
	"adforge/internal/infra/credentials"
	"adforge/internal/infra/geoip"
	"adforge/internal/middleware"
	"adforge/internal/mood"
	"adforge/internal/providers/genai"
	"adforge/internal/social"
	"adforge/internal/sqlinline"
	"adforge/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: connect database")
	}
	defer pool.Close()

	sql := infra.NewSQLRunner(pool, logger)
	if err := bootstrapSchema(ctx, sql); err != nil {
		logger.Fatal().Err(err).Msg("api: bootstrap schema")
	}

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: init storage")
	}

	// The env var wins; the database-stored key covers runtime rotation via
	// cmd/geminikey.
	creds := credentials.NewStore(sql)
	apiKey := cfg.GeminiAPIKey
	if apiKey == "" {
		stored, err := creds.GeminiAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("api: read stored model key")
		} else {
			apiKey = stored
		}
	}
	if apiKey == "" {
		logger.Warn().Msg("api: no model API key configured, serving synthetic assets")
	}

	socialToken := cfg.SocialProxyToken
	if socialToken == "" {
		stored, err := creds.SocialProxyToken(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("api: read stored social proxy token")
		} else {
			socialToken = stored
		}
	}

	gen, err := genai.NewClient(genai.Options{
		APIKey:            apiKey,
		BaseURL:           cfg.GeminiBaseURL,
		TextModel:         cfg.GeminiTextModel,
		ImageModel:        cfg.GeminiImageModel,
		VideoModel:        cfg.GeminiVideoModel,
		Logger:            &logger,
		VideoPollInterval: cfg.VideoPollInterval,
		VideoPollAttempts: cfg.VideoPollAttempts,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: init model client")
	}

	resolver := creative.NewSourceImageResolver(store, sql, logger)
	orchestrator := creative.NewGenerationOrchestrator(
		sql, store, resolver,
		creative.NewCopyGenerator(gen, logger),
		creative.NewCreativeGenerator(gen, logger),
		creative.NewCompositor(store, logger),
		logger,
	)

	var lookup middleware.CountryLookup
	country, err := geoip.Open(cfg.GeoIPDBPath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip database unavailable")
	} else if country != nil {
		defer country.Close()
		lookup = country.CountryCode
	}

	app := &handlers.App{
		SQL:           sql,
		Store:         store,
		Orchestrator:  orchestrator,
		ProductImages: creative.NewProductImageRenderer(gen, store, logger),
		Mood:          mood.NewService(sql, store, gen, logger),
		Social: social.NewClient(social.Options{
			BaseURL: cfg.SocialProxyURL,
			Token:   socialToken,
			Logger:  logger,
		}),
		Config: cfg,
		Logger: logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, lookup))

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown")
	}
	logger.Info().Msg("api: stopped")
}

// bootstrapSchema applies the DDL and seeds a demo campaign into an empty
// database. Statements are idempotent, so reruns on restart are safe.
func bootstrapSchema(ctx context.Context, sql infra.SQLExecutor) error {
	for _, stmt := range sqlinline.SchemaStatements {
		if _, err := sql.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	_, err := sql.Exec(ctx, sqlinline.QSeedDemoCampaign)
	return err
}
