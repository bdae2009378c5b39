package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/domain/event"
	"marketplace/internal/handler"
	"marketplace/internal/infra/db"
	"marketplace/internal/infra/metrics"
	"marketplace/internal/infra/rabbit"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/infra/system"
	"marketplace/internal/payment"
	"marketplace/internal/server"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rabbitmq/amqp091-go"
)

// アクセストークンの有効期限
const accessTokenTTL = 15 * time.Minute

func main() {
	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Repository（GORM実装）生成
	tx := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	itemRepo := infraRepo.NewMarketplaceItemGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	offerRepo := infraRepo.NewServiceOfferGormRepository(gormDB)
	requestRepo := infraRepo.NewServiceRequestGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := system.UUIDGenerator{}
	clock := system.Clock{}
	v := validator.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	notificationUC := usecase.NewNotificationUsecase(notificationRepo, clock)

	//RABBIT_URLが無ければ同じプロセスで通知を作る
	var publisher event.Publisher = event.NewHandlerPublisher(notificationUC)
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("rabbitmq dial: %v", err)
		}
		defer conn.Close()

		pubCh, err := conn.Channel()
		if err != nil {
			log.Fatalf("rabbitmq channel: %v", err)
		}
		p, err := rabbit.NewPublisher(pubCh, cfg.RabbitExchange)
		if err != nil {
			log.Fatal(err)
		}
		publisher = p

		subCh, err := conn.Channel()
		if err != nil {
			log.Fatalf("rabbitmq channel: %v", err)
		}
		if err := rabbit.SetupConsumer(ctx, subCh, cfg.RabbitExchange, notificationUC); err != nil {
			log.Fatal(err)
		}
	}

	pricing := usecase.PricingPolicy{
		Currency:              cfg.Pricing.Currency,
		ShippingFee:           cfg.Pricing.ShippingFee,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		TaxRate:               cfg.Pricing.TaxRate,
		DiscountRate:          cfg.Pricing.DiscountRate,
	}
	verifier := payment.NewVerifier(cfg.PaymentKeySecret, cfg.PaymentWebhookSecret)

	//Usecase生成
	checkoutUC := usecase.NewCheckoutUsecase(tx, pricing, clock, idGen, rec, publisher)
	orderUC := usecase.NewOrderUsecase(tx, cfg.PaymentKeyID, clock, idGen, rec, publisher)
	paymentUC := usecase.NewPaymentUsecase(tx, verifier, clock, idGen, rec, publisher)
	shippingUC := usecase.NewShippingUsecase(tx, clock, idGen, rec, publisher)
	adminOrderUC := usecase.NewAdminOrderUsecase(tx, clock, idGen, rec, publisher)
	marketplaceUC := usecase.NewMarketplaceUsecase(itemRepo, tx, clock)
	cartUC := usecase.NewCartUsecase(cartRepo, itemRepo)
	offerUC := usecase.NewServiceOfferUsecase(offerRepo, clock, v)
	requestUC := usecase.NewServiceRequestUsecase(requestRepo, clock)
	reviewUC := usecase.NewAdminReviewUsecase(tx, clock, idGen, rec, publisher)
	profileUC := usecase.NewProfileUsecase(userRepo, v)
	verificationUC := usecase.NewVerificationUsecase(tx, v, clock, idGen, publisher)
	adminUserUC := usecase.NewAdminUserUsecase(tx, auditRepo, clock)

	//Handler生成
	guard := handler.Guard{
		Tokens:      auth.NewTokens(cfg.JWTSecret, accessTokenTTL),
		AdminCookie: cfg.AdminSessionCookie,
		Users:       userRepo,
	}
	e := server.New(server.Options{
		AllowOrigins: allowOrigins(cfg.FEURL),
		Gatherer:     reg,
	}, server.Handlers{
		Guard:        guard,
		Orders:       handler.NewOrderHandler(checkoutUC, orderUC, paymentUC, shippingUC),
		Cart:         handler.NewCartHandler(cartUC),
		Marketplace:  handler.NewMarketplaceHandler(marketplaceUC),
		Services:     handler.NewServiceHandler(offerUC, requestUC),
		Account:      handler.NewAccountHandler(profileUC, verificationUC, notificationUC),
		AdminOrders:  handler.NewAdminOrderHandler(adminOrderUC),
		AdminReviews: handler.NewAdminReviewHandler(reviewUC, verificationUC),
		AdminUsers:   handler.NewAdminUserHandler(adminUserUC),
	})

	//Server起動
	go func() {
		if err := e.Start(":" + strings.TrimPrefix(cfg.Port, ":")); err != nil {
			e.Logger.Info("shutting down: ", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}

// FE_URLはカンマ区切りで複数可
func allowOrigins(feURL string) []string {
	var out []string
	for _, o := range strings.Split(feURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
