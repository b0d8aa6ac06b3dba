package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/171k/ICT602-Laundroyale/internal/analytics"
	"github.com/171k/ICT602-Laundroyale/internal/booking"
	"github.com/171k/ICT602-Laundroyale/internal/cache"
	"github.com/171k/ICT602-Laundroyale/internal/config"
	"github.com/171k/ICT602-Laundroyale/internal/db"
	"github.com/171k/ICT602-Laundroyale/internal/docstore"
	"github.com/171k/ICT602-Laundroyale/internal/docstore/pgdoc"
	"github.com/171k/ICT602-Laundroyale/internal/kafka"
	"github.com/171k/ICT602-Laundroyale/internal/logger"
	"github.com/171k/ICT602-Laundroyale/internal/outbox"
	"github.com/171k/ICT602-Laundroyale/internal/payment"
	"github.com/171k/ICT602-Laundroyale/internal/repository"
	"github.com/171k/ICT602-Laundroyale/internal/reward"
	"github.com/171k/ICT602-Laundroyale/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	zapLogger := logger.New(cfg.Debug)
	defer func() { _ = zapLogger.Sync() }()

	var (
		store     docstore.Store
		queue     *outbox.Queue
		publisher *outbox.Publisher
	)

	if cfg.InMemory {
		log.Println("Using in-memory document store")
		store = buildMemStore(cfg)
	} else {
		database, err := db.NewDb(ctx, cfg.DSN())
		if err != nil {
			log.Fatalf("Database init error: %v", err)
		}
		defer database.Close()

		if err := db.InitSchema(ctx, database); err != nil {
			log.Fatalf("Schema init error: %v", err)
		}
		store = pgdoc.New(database)

		var producer kafka.Producer
		if len(cfg.KafkaBrokers) > 0 {
			producer = kafka.NewWriterProducer(cfg.KafkaBrokers)
		} else {
			producer = kafka.NewConsoleProducer()
		}

		outboxRepo := outbox.NewRepo(database)
		queue = outbox.NewQueue(outboxRepo)
		publisher = outbox.NewPublisher(database, outboxRepo, producer, outbox.PublisherConfig{
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
			MaxAttempts:  cfg.OutboxMaxAttempts,
		})
	}

	machineRepo := repository.NewMachineRepo(store)
	orderRepo := repository.NewOrderRepo(store)
	paymentRepo := repository.NewPaymentRepo(store)
	tokenRepo := repository.NewTokenRepo(store)
	voucherRepo := repository.NewVoucherRepo(store)
	userRepo := repository.NewUserRepo(store)

	if err := repository.EnsureAdmin(ctx, userRepo, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Admin seeding error: %v", err)
	}

	machineCache := cache.NewMachineCache(machineRepo)
	if err := machineCache.LoadInitialData(ctx); err != nil {
		log.Printf("WARN: failed to warm machine cache: %v", err)
	}

	checker := booking.NewAvailabilityChecker(orderRepo, paymentRepo, cfg.FailClosed)
	bookingService := booking.NewService(machineCache, orderRepo, paymentRepo, checker)
	settler := payment.NewSettler(paymentRepo, orderRepo, tokenRepo, voucherRepo)
	if queue != nil {
		bookingService.WithEvents(queue, cfg.EventsTopic)
		settler.WithTasks(queue, cfg.EventsTopic, cfg.RepairTopic)
	}

	reader := booking.NewReader(orderRepo, paymentRepo)
	ledger := reward.NewLedger(tokenRepo, voucherRepo)
	analyticsService := analytics.NewService(paymentRepo, orderRepo, userRepo, machineRepo)

	srv := server.New(bookingService, reader, settler, ledger, machineRepo, analyticsService, userRepo).
		WithMachineChangeHook(machineCache.Invalidate)
	if queue != nil {
		srv.AuditManager.WithSink(queue, cfg.AuditTopic)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	if publisher != nil {
		g.Go(func() error {
			publisher.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown failed: %v", err)
		}
		if publisher != nil {
			publisher.Shutdown()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Fatal: %v", err)
	}
	log.Println("Server gracefully stopped")
}

func buildMemStore(cfg config.Config) docstore.Store {
	var (
		store *docstore.MemStore
		err   error
	)
	if cfg.SnapshotPath != "" {
		store, err = docstore.NewMemStoreWithSnapshot(cfg.SnapshotPath)
		if err != nil {
			log.Fatalf("Snapshot load error: %v", err)
		}
	} else {
		store = docstore.NewMemStore()
	}

	// Composite indexes mirroring the ordered queries the repositories run.
	store.RegisterIndex("orders", "created_at", "user_id")
	store.RegisterIndex("vouchers", "created_at", "user_id")
	return store
}
