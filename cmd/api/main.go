package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/infra/database"
	"github.com/glowlocal/lead-payments/internal/infra/http/handlers"
	"github.com/glowlocal/lead-payments/internal/infra/http/middleware"
	stripebridge "github.com/glowlocal/lead-payments/internal/infra/integration/stripe"
	"github.com/glowlocal/lead-payments/internal/infra/integration/twilio"
	"github.com/glowlocal/lead-payments/internal/infra/mail"
	"github.com/glowlocal/lead-payments/internal/infra/queue"
	"github.com/glowlocal/lead-payments/internal/infra/worker"
	"github.com/glowlocal/lead-payments/internal/logger"
	"github.com/glowlocal/lead-payments/internal/notify"
	"github.com/glowlocal/lead-payments/internal/usecase"
)

func main() {
	godotenv.Load()

	log := logger.New("lead-payments")
	if os.Getenv("APP_ENV") == "development" {
		log = logger.NewDevelopment("lead-payments")
	}
	defer log.Sync()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		log.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	// 1. Repositories
	leadRepo := database.NewLeadRepository(db)
	interactionRepo := database.NewInteractionRepository(db)
	providerRepo := database.NewProviderRepository(db)
	optOutRepo := database.NewOptOutRepository(db)
	policyRepo := database.NewPolicyRepository(db)

	// 2. Gateways and adapters
	paymentGateway := stripebridge.NewClient(os.Getenv("STRIPE_API_KEY"), os.Getenv("STRIPE_WEBHOOK_SECRET"))
	smsClient := twilio.NewClient(
		os.Getenv("TWILIO_ACCOUNT_SID"), os.Getenv("TWILIO_AUTH_TOKEN"),
		os.Getenv("TWILIO_FROM_NUMBER"), log,
	)
	dispatcher := notify.NewDispatcher(smsClient)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	mailPort, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if mailPort == 0 {
		mailPort = 587
	}
	alertSender := mail.NewAlertSender(
		os.Getenv("MAIL_HOST"), mailPort, os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
		os.Getenv("MAIL_FROM"), os.Getenv("OPS_ALERT_ADDR"),
	)

	// 3. Use cases
	createLeadUC := usecase.NewCreateLeadUseCase(leadRepo, producer, log)
	dispatchUC := usecase.NewDispatchTeaserUseCase(
		leadRepo, interactionRepo, providerRepo, optOutRepo, policyRepo, dispatcher, log,
	)
	replyUC := usecase.NewHandleReplyUseCase(
		leadRepo, interactionRepo, providerRepo, optOutRepo, policyRepo,
		paymentGateway, dispatcher, log,
	)
	confirmUC := usecase.NewConfirmPaymentUseCase(
		leadRepo, interactionRepo, providerRepo, dispatcher, alertSender, log,
	)
	statsUC := usecase.NewLeadStatsUseCase(leadRepo, interactionRepo, log)
	policyUC := usecase.NewUpdatePolicyUseCase(policyRepo, log)

	// 4. Background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	teaserWorker := queue.NewWorker(rabbitMQ.Ch, &teaserDispatchAdapter{uc: dispatchUC}, log)
	go teaserWorker.Start(ctx, queue.QueueName)

	go worker.NewExpirationWorker(interactionRepo, log).Start(ctx)

	// 5. Handlers
	leadHandler := handlers.NewLeadHandler(createLeadUC, dispatchUC, leadRepo)
	smsHandler := handlers.NewSMSHandler(replyUC, log)
	webhookHandler := handlers.NewWebhookHandler(paymentGateway, confirmUC, log)
	adminHandler := handlers.NewAdminHandler(statsUC, policyUC, policyRepo)
	providerHandler := handlers.NewProviderHandler(providerRepo, optOutRepo)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/leads", leadHandler.HandleCreate)
	r.Get("/leads", leadHandler.HandleList)
	r.Get("/leads/{leadId}", leadHandler.HandleGet)
	r.Post("/leads/{leadId}/notify", leadHandler.HandleNotify)

	r.Post("/sms/inbound", smsHandler.HandleInbound)
	r.Post("/webhook/stripe", webhookHandler.Handle)

	r.Post("/providers", providerHandler.HandleCreate)
	r.Get("/providers/{providerId}", providerHandler.HandleGet)

	r.Get("/admin/stats", adminHandler.HandleStats)
	r.Get("/admin/policy", adminHandler.HandleGetPolicy)
	r.Post("/admin/policy", adminHandler.HandleUpdatePolicy)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("server running", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// teaserDispatchAdapter bridges the queue consumer to the dispatch usecase.
type teaserDispatchAdapter struct {
	uc *usecase.DispatchTeaserUseCase
}

func (a *teaserDispatchAdapter) Dispatch(ctx context.Context, payload queue.TeaserDispatchPayload) (bool, error) {
	result := a.uc.Execute(ctx, payload.LeadID, payload.ProviderID)
	middleware.RecordTeaserDispatch(string(result.Outcome))

	switch result.Outcome {
	case usecase.OutcomeQueuedQuietHrs:
		return true, nil
	case usecase.OutcomeError:
		return false, result.Err
	default:
		return false, nil
	}
}
