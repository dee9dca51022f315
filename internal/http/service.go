package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/vhtruong/product-catalog/internal/auth"
	"github.com/vhtruong/product-catalog/internal/config"
	"github.com/vhtruong/product-catalog/internal/http/metric"
	"github.com/vhtruong/product-catalog/internal/http/middleware"
	"github.com/vhtruong/product-catalog/internal/http/swagger"
	"github.com/vhtruong/product-catalog/internal/service"
	"github.com/vhtruong/product-catalog/internal/storage/db"
	"github.com/vhtruong/product-catalog/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metric.Metrics

	productSvc  service.ProductService
	credentials *auth.CredentialStore
	tokenMgr    *auth.TokenManager
	validator   validator.Validator
	health      db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	productSvc service.ProductService,
	credentials *auth.CredentialStore,
	tokenMgr *auth.TokenManager,
	v validator.Validator,
	health db.HealthChecker,
) *Service {
	registry := prometheus.NewRegistry()

	return &Service{
		cfg:         cfg,
		logger:      log.With(slog.String("service", "http")),
		registry:    registry,
		metrics:     metric.New(registry),
		productSvc:  productSvc,
		credentials: credentials,
		tokenMgr:    tokenMgr,
		validator:   v,
		health:      health,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return s.RunWithServer(ctx, r)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	re := responder{logger: s.logger}

	authHandler := newAuthHandler(s.credentials, s.tokenMgr, s.validator, re)
	productHandler := newProductHandler(s.productSvc, re)
	healthHandler := newHealthHandler(s.health, re)

	r.Get("/healthz", healthHandler.Check)
	r.Post("/auth/token", authHandler.IssueToken)

	r.Route("/api/products", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.tokenMgr))

		r.With(middleware.Authorize(auth.OpCreateProduct)).Post("/", productHandler.CreateProduct)
		r.With(middleware.Authorize(auth.OpListProducts)).Get("/", productHandler.ListProducts)
		r.With(middleware.Authorize(auth.OpGetProductBySku)).Get("/by-sku/{sku}", productHandler.GetProductBySku)
		r.With(middleware.Authorize(auth.OpGetProduct)).Get("/{id}", productHandler.GetProductByID)
		r.With(middleware.Authorize(auth.OpUpdatePrice)).Patch("/{id}/price", productHandler.UpdateProductPrice)
		r.With(middleware.Authorize(auth.OpDeleteProduct)).Delete("/{id}", productHandler.DeleteProduct)
	})

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}
