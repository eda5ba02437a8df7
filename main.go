package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcart "github.com/minshop/qrp/internal/application/cart"
	appcatalog "github.com/minshop/qrp/internal/application/catalog"
	appcheckout "github.com/minshop/qrp/internal/application/checkout"
	apppurchase "github.com/minshop/qrp/internal/application/purchase"
	"github.com/minshop/qrp/internal/config"
	"github.com/minshop/qrp/internal/infrastructure/barcode"
	"github.com/minshop/qrp/internal/infrastructure/gateway"
	httptransport "github.com/minshop/qrp/internal/infrastructure/http"
	"github.com/minshop/qrp/internal/infrastructure/id"
	"github.com/minshop/qrp/internal/infrastructure/memory"
	"github.com/minshop/qrp/internal/infrastructure/observability"
	"github.com/minshop/qrp/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	productRepo := memory.NewProductRepository()
	purchaseRepo := memory.NewPurchaseRepository()
	sessionStore := memory.NewSessionStore(cfg.SessionTTL)
	sessionStore.Start(context.Background())
	defer sessionStore.Stop(context.Background())

	idGenerator := id.NewUUIDGenerator()
	payGateway := gateway.NewClient(cfg.Gateway, metrics)

	catalogService := appcatalog.NewService(productRepo, purchaseRepo, idGenerator, barcode.NewQRCodeEncoder())
	cartService := appcart.NewService(productRepo, sessionStore)
	ledgerService := apppurchase.NewService(productRepo, purchaseRepo, idGenerator, metrics)
	checkoutService := appcheckout.NewService(cartService, ledgerService, payGateway, sessionStore, idGenerator, metrics)

	handler := httptransport.NewHandler(catalogService, cartService, ledgerService, checkoutService)

	router := httptransport.LoggingMiddleware(baseLogger)(
		httptransport.SessionMiddleware(cfg.SessionTTL)(handler.Router()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
