package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"medbook/pkg/config"
	"medbook/pkg/model"
)

const PatientsCollection = "Patients"

type PatientRepository interface {
	FindByID(ctx context.Context, id string) (*model.Patient, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type mongoPatientRepository struct {
	collection *mongo.Collection
}

func NewMongoPatientRepository(cfg *config.Config) PatientRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPatientRepository{
		collection: db.Collection(PatientsCollection),
	}
}

func (r *mongoPatientRepository) FindByID(ctx context.Context, id string) (*model.Patient, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var patient model.Patient
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to find patient: %w", err)
	}

	return &patient, nil
}

func (r *mongoPatientRepository) Exists(ctx context.Context, id string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check patient existence: %w", err)
	}
	return count > 0, nil
}
