package main

import (
	appointmenthandler "medbook/internal/appointments/handler"
	appointmentrepo "medbook/internal/appointments/repository"
	appointmentservice "medbook/internal/appointments/service"
	"medbook/internal/appointments/validator"
	availabilityhandler "medbook/internal/availability/handler"
	availabilityrepo "medbook/internal/availability/repository"
	availabilityservice "medbook/internal/availability/service"
	directoryrepo "medbook/internal/directory/repository"
	"medbook/pkg/app"
	"medbook/pkg/config"
	"medbook/pkg/events"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Appointments service")

	appointmentService, availabilityService, publisher := initServices(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Warn("Failed to close event publisher", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		appointmenthandler.NewAppointmentHandler(appointmentService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) (appointmentservice.AppointmentService, availabilityservice.AvailabilityService, events.Publisher) {
	doctorRepo := directoryrepo.NewMongoDoctorRepository(cfg)
	patientRepo := directoryrepo.NewMongoPatientRepository(cfg)

	availabilityService := availabilityservice.NewAvailabilityService(
		availabilityrepo.NewMongoAvailabilityRepository(cfg),
		doctorRepo,
		cfg,
	)

	publisher := events.FromConfig(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)

	appointmentService := appointmentservice.NewAppointmentService(
		appointmentrepo.NewMongoAppointmentRepository(cfg),
		appointmentrepo.NewSlotLockRepository(cfg),
		availabilityService,
		doctorRepo,
		patientRepo,
		validator.NewAppointmentValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Appointment services initialized", "database", cfg.MongoDatabaseName)
	return appointmentService, availabilityService, publisher
}
