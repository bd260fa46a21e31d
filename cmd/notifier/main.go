package main

import (
	"turfbook/internal/notifications"
	turfrepo "turfbook/internal/turfs/repository"
	userrepo "turfbook/internal/users/repository"
	"turfbook/pkg/app"
	"turfbook/pkg/config"
	"turfbook/pkg/kafka"
	kafka_config "turfbook/pkg/kafka/config"
	kafka_middleware "turfbook/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	mailer := notifications.NewSMTPMailer(notifications.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		User:     cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Timeout:  cfg.WriteTimeout,
	})
	handler := notifications.NewConfirmationHandler(
		userrepo.NewMongoUserRepository(cfg),
		turfrepo.NewMongoTurfRepository(cfg),
		mailer,
		cfg.Log,
	)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.BookingEventsTopic,
		kafkaCfg.NotifierGroupID,
		kafkaCfg.BookingEventsDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	cfg.Log.Info("Starting notifier", "topic", kafkaCfg.BookingEventsTopic, "group_id", kafkaCfg.NotifierGroupID)

	// Health, readiness and metrics only; the work happens in the consumer.
	serverApp := app.NewApplication(cfg)
	serverApp.AddWorker(consumer)
	if err := serverApp.SetApp(); err != nil {
		cfg.Log.Fatal("Failed to configure application", "error", err)
	}
	serverApp.Run()
}
