package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"pesantrenku_backend/internals/configs"
	database "pesantrenku_backend/internals/databases"
	billingRepo "pesantrenku_backend/internals/features/finance/billings/repository"
	billingService "pesantrenku_backend/internals/features/finance/billings/service"
	paymentRepo "pesantrenku_backend/internals/features/finance/payments/repository"
	paymentService "pesantrenku_backend/internals/features/finance/payments/service"
	notifRepo "pesantrenku_backend/internals/features/home/notifications/repository"
	notifService "pesantrenku_backend/internals/features/home/notifications/service"
	"pesantrenku_backend/internals/features/school/students/counters"
	studentRepo "pesantrenku_backend/internals/features/school/students/repository"
	studentService "pesantrenku_backend/internals/features/school/students/service"
	helper "pesantrenku_backend/internals/helpers"
	helperOSS "pesantrenku_backend/internals/helpers/oss"
	"pesantrenku_backend/internals/logger"
	middlewares "pesantrenku_backend/internals/middlewares"
	"pesantrenku_backend/internals/pubsub"
	routes "pesantrenku_backend/internals/route"
	routeDetails "pesantrenku_backend/internals/route/details"
	"pesantrenku_backend/internals/schedulers"
)

func main() {
	configs.LoadEnv()
	cfg := configs.Load()

	zlog, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	logger.L = zlog

	// 🔌 DB connect + pool + warm-up + migrate
	db, err := database.ConnectDB(cfg.Database, zlog)
	if err != nil {
		zlog.Fatalw("db connect failed", "error", err)
	}
	database.WarmUp(db, zlog)
	if err := database.AutoMigrate(db, zlog); err != nil {
		zlog.Fatalw("migrate failed", "error", err)
	}
	client := database.NewClient(db, zlog)

	// 📨 event bus (student lifecycle → unit counters)
	bus := pubsub.New(zlog)

	// ===================== REPOSITORIES =====================
	students := studentRepo.NewStudentRepository(client)
	unitCounters := studentRepo.NewUnitCounterRepository(client)
	invoices := billingRepo.NewInvoiceRepository(client)
	statuses := billingRepo.NewPaymentStatusRepository(client)
	checkouts := paymentRepo.NewCheckoutRepository(client)
	notifications := notifRepo.NewNotificationRepository(client)

	// ===================== SERVICES =====================
	counterSvc := counters.NewService(client, unitCounters, students, zlog)
	studentSvc := studentService.NewStudentService(client, students, bus, zlog)

	dispatcher := notifService.NewDispatcher(zlog,
		notifService.NewInboxChannel(notifications),
		notifService.NewWhatsAppChannel(cfg.Notify, zlog),
		notifService.NewEmailChannel(cfg.Notify),
	)

	billing := billingService.NewBillingService(billingService.Deps{
		DB:       client,
		Invoices: invoices,
		Statuses: statuses,
		Students: students,
		Counter:  counterSvc,
		Notifier: dispatcher,
		Config:   cfg.Billing,
		Logger:   zlog,
	})

	// ✅ MIDTRANS (nil kalau server key kosong → checkout ditolak)
	snap := paymentService.NewSnapGateway(cfg.Midtrans)
	checkout := paymentService.NewCheckoutService(client, checkouts, students, billing, snap, cfg.Midtrans.ServerKey, zlog)

	// ☁️ OSS untuk bukti pembayaran (opsional)
	oss, err := helperOSS.NewOSSService(cfg.OSS, zlog)
	if err != nil {
		zlog.Fatalw("oss init failed", "error", err)
	}
	var proofs helperOSS.ProofStore
	if oss != nil {
		proofs = oss
	}

	// ===================== BACKGROUND =====================
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	consumer := counters.NewConsumer(counterSvc, bus, zlog)
	if err := consumer.Start(bgCtx); err != nil {
		zlog.Fatalw("counter consumer failed", "error", err)
	}

	sched := schedulers.New(zlog)
	mustRegister(zlog, sched.Register("issuance-retry", cfg.Billing.IssuanceRetrySchedule, 2*time.Minute, billing.RetryPendingIssuance))
	mustRegister(zlog, sched.Register("counter-reconcile", cfg.Billing.CounterReconcileSchedule, 5*time.Minute, func(ctx context.Context) error {
		fixed, err := counterSvc.Reconcile(ctx)
		if err == nil && fixed > 0 {
			zlog.Infow("unit counters reconciled", "fixed", fixed)
		}
		return err
	}))
	reaper := helperOSS.NewReaper(db, oss, cfg.Reaper, zlog)
	mustRegister(zlog, sched.Register("reaper", cfg.Reaper.Schedule, 10*time.Minute, reaper.Run))
	sched.Start()

	// ===================== HTTP =====================
	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             10 * 1024 * 1024,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.JsonErr(c, err)
		},
	})

	middlewares.SetupMiddlewares(app, cfg.Server, zlog)

	routes.SetupRoutes(app, routes.Deps{
		DB:     db,
		Config: cfg,
		Log:    zlog,
		Finance: routeDetails.FinanceDeps{
			Billing:  billing,
			Checkout: checkout,
			Proofs:   proofs,
			Log:      zlog,
		},
		School: routeDetails.SchoolDeps{
			Students: studentSvc,
			Counters: counterSvc,
		},
		Notifications: notifications,
	})

	port := cfg.Server.Port
	if port == "" {
		port = "3000"
	}

	// Start server non-blocking
	go func() {
		zlog.Infow("✅ Listening", "port", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			zlog.Fatalw("server error", "error", err)
		}
	}()

	// graceful shutdown: HTTP → scheduler → notifikasi → bus → DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	sched.Stop(ctx)
	dispatcher.Wait()
	bgCancel()
	_ = bus.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func mustRegister(log *logger.Logger, err error) {
	if err != nil {
		log.Fatalw("scheduler register failed", "error", err)
	}
}
