package main

import (
	availabilityhandler "turfbook/internal/availability/handler"
	availabilityservice "turfbook/internal/availability/service"
	bookinghandler "turfbook/internal/bookings/handler"
	bookingrepo "turfbook/internal/bookings/repository"
	bookingservice "turfbook/internal/bookings/service"
	"turfbook/internal/bookings/validator"
	"turfbook/internal/notifications"
	paymenthandler "turfbook/internal/payments/handler"
	paymentrepo "turfbook/internal/payments/repository"
	paymentservice "turfbook/internal/payments/service"
	"turfbook/internal/sweeper"
	turfrepo "turfbook/internal/turfs/repository"
	userrepo "turfbook/internal/users/repository"
	"turfbook/pkg/app"
	"turfbook/pkg/config"
	"turfbook/pkg/events"
	"turfbook/pkg/kafka"
	kafka_config "turfbook/pkg/kafka/config"
	kafka_middleware "turfbook/pkg/kafka/middleware"
	"turfbook/pkg/sslcommerz"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, kafkaCfg.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware())

	bus := events.NewRedisBus(cfg.Client.Redis)
	bookings := bookingrepo.NewMongoBookingRepository(cfg)
	turfs := turfrepo.NewMongoTurfRepository(cfg)

	bookingService := bookingservice.NewBookingService(
		bookings,
		bookingrepo.NewBookingLockRepository(cfg),
		turfs,
		validator.NewBookingValidator(cfg.Log),
		bus,
		cfg,
	)
	availabilityService := availabilityservice.NewAvailabilityService(bookings, turfs, cfg)
	paymentService := paymentservice.NewPaymentService(
		paymentrepo.NewMongoPaymentRepository(cfg),
		bookings,
		turfs,
		userrepo.NewMongoUserRepository(cfg),
		sslcommerz.NewClient(sslcommerz.Config{
			StoreID:       cfg.SSLStoreID,
			StorePassword: cfg.SSLStorePassword,
			IsLive:        cfg.SSLIsLive,
			Timeout:       cfg.SSLTimeout,
		}),
		notifications.NewNotifier(producer, ServiceName),
		bus,
		cfg,
	)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	serverApp := app.NewApplication(cfg)
	serverApp.AddWorker(sweeper.New(bookings, cfg.SweepSchedule, cfg.WriteTimeout, cfg.Log))
	err = serverApp.SetApp(
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, bus, cfg.ClientURL, cfg.Log),
		paymenthandler.NewPaymentHandler(paymentService, cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to configure application", "error", err)
	}
	serverApp.Run()
}
