package repository

import (
	"context"
	"errors"
	"fmt"

	"gigboard/pkg/metrics"
	"gigboard/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	jobsCollection  = "jobs"
	usersCollection = "users"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrUserNotFound = errors.New("user not found")
)

type jobRepository struct {
	collection *mongo.Collection
}

// NewJobRepository - только чтение, коллекцией jobs владеет сервис заказов
func NewJobRepository(db *mongo.Database) JobRepository {
	return &jobRepository{collection: db.Collection(jobsCollection)}
}

func (r *jobRepository) GetByID(ctx context.Context, id string) (*entity.Job, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, jobsCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrJobNotFound
	}

	opts := options.FindOne().SetProjection(bson.M{
		"title":               1,
		"status":              1,
		"client_id":           1,
		"hired_freelancer_id": 1,
	})

	var job entity.Job
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{collection: db.Collection(usersCollection)}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, usersCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// пароль и прочие поля сервису отзывов не нужны
	opts := options.FindOne().SetProjection(bson.M{
		"email":     1,
		"name":      1,
		"role":      1,
		"is_active": 1,
	})

	var user entity.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
