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

const DoctorsCollection = "Doctors"

// DoctorRepository is the read-only view of the doctor directory. Profile
// management belongs to the identity service; the scheduling engine only
// resolves references.
type DoctorRepository interface {
	FindByID(ctx context.Context, id string) (*model.Doctor, error)
	FindByEmail(ctx context.Context, email string) (*model.Doctor, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type mongoDoctorRepository struct {
	collection *mongo.Collection
}

func NewMongoDoctorRepository(cfg *config.Config) DoctorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDoctorRepository{
		collection: db.Collection(DoctorsCollection),
	}
}

func (r *mongoDoctorRepository) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var doctor model.Doctor
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to find doctor: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) FindByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&doctor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to find doctor by email: %w", err)
	}

	return &doctor, nil
}

func (r *mongoDoctorRepository) Exists(ctx context.Context, id string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check doctor existence: %w", err)
	}
	return count > 0, nil
}
