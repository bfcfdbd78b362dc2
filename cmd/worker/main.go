package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/burgerhouse/ordering-backend/internal/messaging"
	"github.com/burgerhouse/ordering-backend/internal/orders"
	"github.com/burgerhouse/ordering-backend/internal/telemetry"
	"github.com/burgerhouse/ordering-backend/internal/ticket"
	"github.com/burgerhouse/ordering-backend/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
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

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, "order.placed", "ticket-worker")
	defer func() { _ = consumer.Close() }()

	repo := orders.NewOrderRepository(db)
	handler := worker.NewTicketHandler(repo, ticket.NewRenderer(), ticketStore, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting ticket worker", "brokers", brokers, "tickets_dir", ticketsDir)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
