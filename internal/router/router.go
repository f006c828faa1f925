package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "pet-sharing/internal/adapters/storage/memory"
	pg "pet-sharing/internal/adapters/storage/postgres"
	_ "pet-sharing/docs"
	"pet-sharing/internal/domain/accessgrants"
	"pet-sharing/internal/domain/audit"
	"pet-sharing/internal/domain/authz"
	"pet-sharing/internal/domain/pets"
	"pet-sharing/internal/domain/sharelinks"
	"pet-sharing/internal/middleware"
	"pet-sharing/internal/platform/logger"
	"pet-sharing/internal/ports/auth"
	"pet-sharing/internal/ports/identity"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: directorio de identidades (matcheo de invites por e-mail).
	Directory identity.Directory

	Logger logger.Logger

	// Base pública para armar URLs de share links (share.public_base_url).
	PublicBaseURL string
	// Entropía de tokens en bytes; <=0 usa el default.
	ShareTokenBytes int
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if opts.Logger != nil {
		r.Use(middleware.RequestLog(opts.Logger))
	}
	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		petRepo    pets.Repository
		grantsRepo accessgrants.Repository
		linksRepo  sharelinks.Repository
		auditRepo  audit.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		petRepo = pg.NewPetsRepo(db)
		grantsRepo = pg.NewAccessGrantsRepo(db)
		linksRepo = pg.NewShareLinksRepo(db)
		auditRepo = pg.NewAuditRepo(db)
	} else {
		petRepo = mem.NewPetRepo()
		grantsRepo = mem.NewAccessGrantsRepo()
		linksRepo = mem.NewShareLinksRepo()
		auditRepo = mem.NewAuditRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	auditSvc := audit.NewService(auditRepo)

	grantsSvc := accessgrants.NewService(grantsRepo, petsSvc)
	grantsSvc.Directory = opts.Directory
	grantsSvc.Trail = auditSvc
	grantsSvc.SetTokenBytes(opts.ShareTokenBytes)

	linksSvc := sharelinks.NewService(linksRepo, petsSvc)
	linksSvc.Trail = auditSvc
	linksSvc.SetTokenBytes(opts.ShareTokenBytes)

	resolver := authz.NewResolver(petsSvc, grantsRepo)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc, resolver)
	accessgrants.RegisterRoutes(r, grantsSvc)
	sharelinks.RegisterRoutes(r, linksSvc, petsSvc, opts.PublicBaseURL)
	audit.RegisterRoutes(r, auditSvc)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return r
}
