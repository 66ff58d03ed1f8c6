// Package app wires configuration, storage, services and the HTTP router.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/vnkhanh/cogload-backend/config"
	"github.com/vnkhanh/cogload-backend/controllers"
	"github.com/vnkhanh/cogload-backend/logger"
	"github.com/vnkhanh/cogload-backend/metrics"
	"github.com/vnkhanh/cogload-backend/middleware"
	"github.com/vnkhanh/cogload-backend/repos"
	"github.com/vnkhanh/cogload-backend/routes"
	"github.com/vnkhanh/cogload-backend/services"
	"github.com/vnkhanh/cogload-backend/utils"
)

type Repos struct {
	Users       repos.UserRepo
	Articles    repos.ArticleRepo
	Annotations repos.AnnotationRepo
}

type Services struct {
	Auth       *services.AuthService
	Assignment *services.AssignmentService
	Annotation *services.AnnotationService
	Articles   *services.ArticleService
	Stats      *services.StatsService
	Ingest     *services.IngestService
	Export     *services.ExportService
	Archive    *services.ArchiveService
	Admin      *services.AdminService
}

type App struct {
	Cfg      config.Config
	Log      *logger.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Repos    Repos
	Services Services
	Router   *gin.Engine
}

// New opens the configured database and builds the full application.
func New(cfg config.Config, log *logger.Logger) (*App, error) {
	db, err := config.OpenDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return NewWithDB(cfg, log, db), nil
}

// NewWithDB builds the application on an already migrated handle.
func NewWithDB(cfg config.Config, log *logger.Logger, db *gorm.DB) *App {
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	reposet := wireRepos(db, log)
	serviceset := wireServices(cfg, log, reposet)

	a := &App{
		Cfg:      cfg,
		Log:      log,
		DB:       db,
		Registry: registry,
		Repos:    reposet,
		Services: serviceset,
	}
	a.Router = a.wireRouter()
	return a
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:       repos.NewUserRepo(db, log),
		Articles:    repos.NewArticleRepo(db, log),
		Annotations: repos.NewAnnotationRepo(db, log),
	}
}

func wireServices(cfg config.Config, log *logger.Logger, r Repos) Services {
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var uploader services.Uploader
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		uploader = utils.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	}

	s := Services{
		Auth:       services.NewAuthService(r.Users, tokens, log),
		Assignment: services.NewAssignmentService(r.Articles, log),
		Annotation: services.NewAnnotationService(r.Articles, r.Annotations, log),
		Articles:   services.NewArticleService(r.Articles, r.Annotations, log),
		Stats:      services.NewStatsService(r.Users, r.Articles, r.Annotations, cfg.Stats.UnderAnnotatedThreshold, cfg.Stats.HistogramDays, log),
		Ingest:     services.NewIngestService(r.Articles, &http.Client{Timeout: 30 * time.Second}, log),
		Export:     services.NewExportService(r.Articles, r.Annotations, log),
	}
	s.Archive = services.NewArchiveService(s.Export, uploader, log)
	s.Admin = services.NewAdminService(s.Articles, s.Stats, s.Ingest, s.Export, s.Archive)
	return s
}

func (a *App) wireRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(a.Log), metrics.Middleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.Cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	writeError := controllers.ErrorWriter(a.Log)
	ctrl := routes.Controllers{
		Health: controllers.NewHealthController(a.DB),
		Auth:   controllers.NewAuthController(a.Services.Auth, writeError),
		Articles: controllers.NewArticleController(
			a.Services.Assignment,
			a.Services.Annotation,
			a.Services.Articles,
			a.Services.Stats,
			writeError,
		),
		Admin: controllers.NewAdminController(a.Services.Admin, writeError),
	}

	r.GET("/metrics", metrics.Handler(a.Registry))
	return routes.SetupRouter(r, ctrl, middleware.AuthMiddleware(a.Services.Auth, writeError))
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
