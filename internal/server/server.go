package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/metrics"
	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/payment/webhook"
	promotiondomain "github.com/deskhivelabs/deskhive/internal/promotion/domain"
)

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Server struct {
	engine   *gin.Engine
	log      *zap.Logger
	cfg      config.Config
	payments paymentdomain.Service
	coupons  promotiondomain.Validator
	webhooks *webhook.Service
	metrics  *metrics.Metrics
}

type Params struct {
	fx.In

	Engine   *gin.Engine
	Log      *zap.Logger
	Cfg      config.Config
	Payments paymentdomain.Service
	Coupons  promotiondomain.Validator
	Webhooks *webhook.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewServer(p Params) *Server {
	return &Server{
		engine:   p.Engine,
		log:      p.Log.Named("server"),
		cfg:      p.Cfg,
		payments: p.Payments,
		coupons:  p.Coupons,
		webhooks: p.Webhooks,
		metrics:  p.Metrics,
	}
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log.Named("http")))
	return engine
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.Use(identityFromHeaders())
	{
		api.POST("/payments/initiate", s.InitiatePayment)
		api.POST("/payments/:id/verify", s.VerifyGatewayPayment)
		api.POST("/payments/:id/verify-manual", s.VerifyManualPayment)
		api.GET("/payments", s.ListPayments)
		api.GET("/payments/:id", s.GetPayment)
		api.POST("/coupons/validate", s.ValidateCoupon)
	}

	// Webhooks authenticate by content, not session.
	s.engine.POST("/webhooks/:provider", s.IngestWebhook)
}

func RunHTTP(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("http server starting", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
