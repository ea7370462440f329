package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	availabilityerrors "medbook/internal/availability/errors"
	"medbook/pkg/config"
	mongotx "medbook/pkg/db/mongo"
	"medbook/pkg/model"
)

const CollectionName = "Availability"

type AvailabilityRepository interface {
	FindByDoctorAndDay(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error)
	FindActiveByDoctor(ctx context.Context, doctorID string) ([]*model.AvailabilityEntry, error)
	FindActiveByDay(ctx context.Context, day model.Weekday) ([]*model.AvailabilityEntry, error)
	ReplaceForDoctor(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error
	DeleteForDoctor(ctx context.Context, doctorID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoAvailabilityRepository) FindByDoctorAndDay(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
	filter := bson.M{
		"doctor_id":   doctorID,
		"day_of_week": day,
	}

	var entry model.AvailabilityEntry
	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find availability entry: %w", err)
	}

	return &entry, nil
}

func (r *mongoAvailabilityRepository) FindActiveByDoctor(ctx context.Context, doctorID string) ([]*model.AvailabilityEntry, error) {
	filter := bson.M{
		"doctor_id": doctorID,
		"is_active": true,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.AvailabilityEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode availability entries: %w", err)
	}

	return entries, nil
}

func (r *mongoAvailabilityRepository) FindActiveByDay(ctx context.Context, day model.Weekday) ([]*model.AvailabilityEntry, error) {
	filter := bson.M{
		"day_of_week": day,
		"is_active":   true,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.AvailabilityEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode availability entries: %w", err)
	}

	return entries, nil
}

// ReplaceForDoctor swaps the doctor's whole schedule in one shot. Run inside
// a transaction so readers never observe a half-replaced schedule.
func (r *mongoAvailabilityRepository) ReplaceForDoctor(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"doctor_id": doctorID}); err != nil {
		return fmt.Errorf("failed to clear existing availability: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, 0, len(entries))
	for _, entry := range entries {
		docs = append(docs, entry)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert availability entries: %w", err)
	}

	return nil
}

func (r *mongoAvailabilityRepository) DeleteForDoctor(ctx context.Context, doctorID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"doctor_id": doctorID}); err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
