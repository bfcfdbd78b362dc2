package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/burgerhouse/ordering-backend/internal/auth"
	"github.com/burgerhouse/ordering-backend/internal/catalog"
	"github.com/burgerhouse/ordering-backend/internal/messaging"
	"github.com/burgerhouse/ordering-backend/internal/orders"
	"github.com/burgerhouse/ordering-backend/internal/telemetry"
	"github.com/burgerhouse/ordering-backend/internal/ticket"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "ordering-backend", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("ordering-backend", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := otelruntime.Start(); err != nil {
		logger.Error("failed to start runtime metrics", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ticketsDir := os.Getenv("TICKETS_DIR")
	if ticketsDir == "" {
		ticketsDir = "tickets"
	}
	ticketStore, err := ticket.NewStore(ticketsDir)
	if err != nil {
		logger.Error("failed to initialize ticket store", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, "order.placed")
		defer func() { _ = producer.Close() }()
	}

	orderRepo := orders.NewOrderRepository(db)
	catalogRepo := catalog.NewCatalogRepository(db)
	renderer := ticket.NewRenderer()
	verifier := auth.NewVerifier(jwtSecret)

	var publisher orders.EventPublisher
	if producer != nil {
		publisher = producer
	}
	orderHandler := orders.NewHandler(orderRepo, renderer, ticketStore, publisher, logger)
	catalogHandler := catalog.NewHandler(catalogRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /carta", telemetry.WithHTTPRoute(catalogHandler.HandleMenu))
	mux.HandleFunc("GET /pedidos/producto/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleProduct))
	mux.HandleFunc("POST /pedido", telemetry.WithHTTPRoute(orderHandler.HandlePlace))
	mux.HandleFunc("GET /tickets/{id}", telemetry.WithHTTPRoute(orderHandler.HandleTicketArtifact))

	mux.Handle("GET /admin/pedidos", verifier.Require(telemetry.WithHTTPRoute(orderHandler.HandleList)))
	mux.Handle("GET /admin/pedidos/{id}/detalles", verifier.Require(telemetry.WithHTTPRoute(orderHandler.HandleDetails)))
	mux.Handle("PUT /admin/pedidos/{id}", verifier.Require(telemetry.WithHTTPRoute(orderHandler.HandleMarkReady)))
	mux.Handle("GET /admin/pedidos/{id}/ticket", verifier.Require(telemetry.WithHTTPRoute(orderHandler.HandleTicket)))

	handler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(handler, "ordering-backend",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting ordering backend", "port", port, "tickets_dir", ticketsDir)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
