package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appointmentserrors "medbook/internal/appointments/errors"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	"medbook/pkg/model"
)

const CollectionName = "Appointments"

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error)
	Count(ctx context.Context) (int64, error)
	FindByDoctor(ctx context.Context, doctorID string, limit int, offset int64) ([]*model.Appointment, error)
	FindByPatient(ctx context.Context, patientID string, limit int, offset int64) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	UpdateStatusAndReason(ctx context.Context, id string, status model.AppointmentStatus, reason string) error
	Delete(ctx context.Context, id string) error
	ExistsActiveAt(ctx context.Context, doctorID string, date string, timeSlot string) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// Create inserts the appointment and backfills its generated id. A duplicate
// key error means the partial unique (doctor, date, time) index rejected the
// write; callers map that to a slot conflict.
func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	appointment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, appointment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appointment.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	var appointment model.Appointment
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appointment, nil
}

func (r *mongoAppointmentRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "appointment_date", Value: 1}, {Key: "appointment_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func (r *mongoAppointmentRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *mongoAppointmentRepository) FindByDoctor(ctx context.Context, doctorID string, limit int, offset int64) ([]*model.Appointment, error) {
	return r.findByField(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *mongoAppointmentRepository) FindByPatient(ctx context.Context, patientID string, limit int, offset int64) ([]*model.Appointment, error) {
	return r.findByField(ctx, "patient_id", patientID, limit, offset)
}

func (r *mongoAppointmentRepository) findByField(ctx context.Context, field string, value string, limit int, offset int64) ([]*model.Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "appointment_date", Value: 1}, {Key: "appointment_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{field: value}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}

	return appointments, nil
}

func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	return r.updateFields(ctx, id, bson.M{"status": status})
}

// UpdateStatusAndReason overwrites the booking reason alongside the status.
// Used by reject, which records why the appointment was turned down.
func (r *mongoAppointmentRepository) UpdateStatusAndReason(ctx context.Context, id string, status model.AppointmentStatus, reason string) error {
	return r.updateFields(ctx, id, bson.M{"status": status, "reason": reason})
}

func (r *mongoAppointmentRepository) updateFields(ctx context.Context, id string, fields bson.M) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.MatchedCount == 0 {
		return appointmentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.DeletedCount == 0 {
		return appointmentserrors.ErrNotFound
	}
	return nil
}

// ExistsActiveAt reports whether any non-cancelled appointment occupies the
// doctor's slot. Cancelled appointments free the slot.
func (r *mongoAppointmentRepository) ExistsActiveAt(ctx context.Context, doctorID string, date string, timeSlot string) (bool, error) {
	filter := bson.M{
		"doctor_id":        doctorID,
		"appointment_date": date,
		"appointment_time": timeSlot,
		"status":           bson.M{"$ne": model.StatusCancelled},
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	return count > 0, nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
