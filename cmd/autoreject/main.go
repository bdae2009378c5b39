// Command autoreject rejects every service offer still pending after the
// review deadline. It runs one sweep and exits, for an external scheduler.
package main

import (
	"context"
	"log"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain/event"
	"marketplace/internal/infra/db"
	"marketplace/internal/infra/metrics"
	"marketplace/internal/infra/rabbit"
	infraRepo "marketplace/internal/infra/repository"
	"marketplace/internal/infra/system"
	"marketplace/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	clock := system.Clock{}

	//通知はAPIと同じ経路で流す
	notificationUC := usecase.NewNotificationUsecase(infraRepo.NewNotificationGormRepository(gormDB), clock)
	var publisher event.Publisher = event.NewHandlerPublisher(notificationUC)
	if cfg.RabbitURL != "" {
		conn, err := amqp091.Dial(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("rabbitmq dial: %v", err)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			log.Fatalf("rabbitmq channel: %v", err)
		}
		p, err := rabbit.NewPublisher(ch, cfg.RabbitExchange)
		if err != nil {
			log.Fatal(err)
		}
		publisher = p
	}

	uc := usecase.NewAdminReviewUsecase(
		infraRepo.NewTxManagerGorm(gormDB),
		clock,
		system.UUIDGenerator{},
		metrics.NewRecorder(prometheus.NewRegistry()),
		publisher,
	)

	//actorなし = システム実行
	out, err := uc.AutoReject(ctx, nil)
	if err != nil {
		log.Fatalf("auto-reject failed: %v", err)
	}
	log.Printf("auto-rejected %d service offers %v", out.Count, out.IDs)
}
