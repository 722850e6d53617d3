package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbar/tapflow/internal/billing"
	billingdomain "github.com/openbar/tapflow/internal/billing/domain"
	"github.com/openbar/tapflow/internal/config"
	"github.com/openbar/tapflow/internal/dispenser"
	dispenserdomain "github.com/openbar/tapflow/internal/dispenser/domain"
	"github.com/openbar/tapflow/internal/observability"
	obsmiddleware "github.com/openbar/tapflow/internal/observability/logger"
	obsmetrics "github.com/openbar/tapflow/internal/observability/metrics"
	obstracing "github.com/openbar/tapflow/internal/observability/tracing"
	"github.com/openbar/tapflow/internal/tap"
	tapdomain "github.com/openbar/tapflow/internal/tap/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	dispenser.Module,
	tap.Module,
	billing.Module,
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

type Params struct {
	fx.In

	Engine       *gin.Engine
	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	DispenserSvc dispenserdomain.Service
	TapSvc       tapdomain.Service
	BillingSvc   billingdomain.Service
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	dispenserSvc dispenserdomain.Service
	tapSvc       tapdomain.Service
	billingSvc   billingdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		engine:       p.Engine,
		cfg:          p.Config,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		dispenserSvc: p.DispenserSvc,
		tapSvc:       p.TapSvc,
		billingSvc:   p.BillingSvc,
	}
}

// RegisterRoutes mounts the dispenser API. The wire shapes follow the
// contract existing clients depend on.
func (s *Server) RegisterRoutes() {
	s.engine.POST("/dispensers", s.CreateDispenser)
	s.engine.PUT("/dispensers/:id/status", s.UpdateDispenserStatus)
	s.engine.GET("/dispensers/summary", s.FleetSummary)
	s.engine.GET("/dispensers/:id/spending", s.DispenserSpending)
}

func registerRoutes(s *Server) {
	s.RegisterRoutes()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
