package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"pet-sharing/internal/adapters/auth/odin"
	"pet-sharing/internal/adapters/identity/odindir"
	pg "pet-sharing/internal/adapters/storage/postgres"
	"pet-sharing/internal/platform/config"
	"pet-sharing/internal/platform/logger"
	"pet-sharing/internal/ports/auth"
	"pet-sharing/internal/ports/identity"
	"pet-sharing/internal/router"
)

// @title pet-sharing API
// @version 1.0
// @description Access grants y share links públicos para perfiles de mascotas.
// @BasePath /
func main() {
	// .env es opcional; en deploy las vars vienen del entorno.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Sin config válida no hay nada que servir.
		panic(err)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Format: logger.ParseFormat(cfg.Logging.Format),
		App:    "pet-sharing",
	})

	opts := router.Options{
		Logger:          log,
		PublicBaseURL:   cfg.Share.PublicBaseURL,
		ShareTokenBytes: cfg.Share.TokenBytes,
	}

	if cfg.Database.DSN != "" {
		db, err := pg.Open(cfg.Database.DSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err.Error()})
			panic(err)
		}
		defer db.Close()
		opts.DB = db
	} else {
		log.Warn("no database.dsn configured, using in-memory repos", nil)
	}

	// Odin es opcional: sin base URL/API key el middleware queda en modo
	// dev (X-Debug-User-ID).
	if cfg.Auth.Odin.BaseURL != "" && cfg.Auth.Odin.APIKey != "" {
		opts.AuthVerifier = mustOdinVerifier(cfg)
		opts.Directory = mustOdinDirectory(cfg)
	} else {
		log.Warn("odin not configured, auth middleware in dev mode", nil)
	}

	addr := cfg.Server.Address + ":" + cfg.Server.HTTPPort

	srv := &http.Server{
		Addr:         addr,
		Handler:      router.NewRouter(opts),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		panic(err)
	}
}

func mustOdinVerifier(cfg *config.Config) auth.AuthVerifier {
	client, err := odin.NewClient(odin.Config{
		BaseURL: cfg.Auth.Odin.BaseURL,
		APIKey:  cfg.Auth.Odin.APIKey,
	})
	if err != nil {
		panic(err)
	}
	return odin.NewVerifier(client)
}

func mustOdinDirectory(cfg *config.Config) identity.Directory {
	dir, err := odindir.New(odindir.Config{
		BaseURL: cfg.Auth.Odin.BaseURL,
		APIKey:  cfg.Auth.Odin.APIKey,
	})
	if err != nil {
		panic(err)
	}
	return dir
}
