package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigboard/pkg/metrics"
	"gigboard/reviews-service/internal/app/reviews/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	serviceName       = "reviews-service"
	reviewsCollection = "reviews"

	// toggleAttempts - сколько раз пробуем снять/поставить голос, если параллельный запрос успел раньше
	toggleAttempts = 2
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrReviewNotFound   = errors.New("review not found")
	ErrDuplicateReview  = errors.New("review already exists for job, reviewer and recipient")
	ErrNoActiveReport   = errors.New("review has no active report")
	ErrToggleContention = errors.New("helpful vote toggle contention")
)

type reviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{
		collection: db.Collection(reviewsCollection),
	}
}

// EnsureIndexes создает индексы коллекции reviews.
// Уникальный индекс по (job_id, reviewer_id, recipient_id) - единственная надёжная защита от дублей
func (r *reviewRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "job_id", Value: 1},
				{Key: "reviewer_id", Value: 1},
				{Key: "recipient_id", Value: 1},
			},
			Options: options.Index().SetName("job_reviewer_recipient_uniq").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "recipient_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("recipient_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}},
			Options: options.Index().SetName("job_id_idx"),
		},
		{
			Keys:    bson.D{{Key: "is_reported", Value: 1}},
			Options: options.Index().SetName("is_reported_idx"),
		},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}
	return nil
}

// Create создает новый отзыв. Нарушение уникального индекса возвращается как ErrDuplicateReview
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpInsert, reviewsCollection).ObserveDuration()

	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.HelpfulVotes == nil {
		review.HelpfulVotes = []string{}
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID. Некорректный ID считается отсутствующим отзывом
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// ExistsForTriple - предварительная проверка перед вставкой, подвержена гонке
func (r *reviewRepository) ExistsForTriple(ctx context.Context, jobID, reviewerID, recipientID string) (bool, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection).ObserveDuration()

	filter := bson.M{
		"job_id":       jobID,
		"reviewer_id":  reviewerID,
		"recipient_id": recipientID,
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	err := r.collection.FindOne(ctx, filter, opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}

	return true, nil
}

// GetByJobID - только видимые отзывы по заказу, новые первыми
func (r *reviewRepository) GetByJobID(ctx context.Context, jobID string) ([]entity.Review, error) {
	return r.findVisible(ctx, bson.M{"job_id": jobID})
}

// GetByRecipientID - только видимые отзывы о пользователе, новые первыми
func (r *reviewRepository) GetByRecipientID(ctx context.Context, recipientID string) ([]entity.Review, error) {
	return r.findVisible(ctx, bson.M{"recipient_id": recipientID})
}

func (r *reviewRepository) findVisible(ctx context.Context, filter bson.M) ([]entity.Review, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection).ObserveDuration()

	filter["is_public"] = true
	filter["is_hidden"] = bson.M{"$ne": true}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []entity.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// Update сохраняет изменяемые автором поля. job/reviewer/recipient/type не трогаем
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsCollection).ObserveDuration()

	review.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"categories": review.Categories,
			"is_public":  review.IsPublic,
			"updated_at": review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpDelete, reviewsCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrReviewNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// MarkReported выставляет жалобу. Повторная жалоба перезаписывает причину, автора и время
func (r *reviewRepository) MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	update := bson.M{
		"$set": bson.M{
			"is_reported":   true,
			"report_reason": reason,
			"reported_by":   reporterID,
			"reported_at":   at,
			"updated_at":    at,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review entity.Review
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to report review: %w", err)
	}

	return &review, nil
}

// ResolveReport снимает активную жалобу и записывает решение модератора.
// Условие is_reported=true не даёт двум модераторам закрыть одну жалобу дважды
func (r *reviewRepository) ResolveReport(ctx context.Context, review *entity.Review) error {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsCollection).ObserveDuration()

	review.IsReported = false
	review.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": review.ID, "is_reported": true}
	update := bson.M{
		"$set": bson.M{
			"is_reported":       false,
			"is_public":         review.IsPublic,
			"is_hidden":         review.IsHidden,
			"moderation_reason": review.ModerationReason,
			"admin_notes":       review.AdminNotes,
			"moderated_by":      review.ModeratedBy,
			"moderated_at":      review.ModeratedAt,
			"updated_at":        review.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resolve report: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrNoActiveReport
	}

	return nil
}

// ListReported - отзывы с активной жалобой, старые жалобы первыми
func (r *reviewRepository) ListReported(ctx context.Context) ([]entity.Review, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reviewsCollection).ObserveDuration()

	opts := options.Find().SetSort(bson.D{{Key: "reported_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"is_reported": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reported reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []entity.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reported reviews: %w", err)
	}

	return reviews, nil
}

// ToggleHelpfulVote снимает голос пользователя, если он есть, иначе ставит.
// Оба шага - условные обновления, поэтому голос одного пользователя не дублируется
func (r *reviewRepository) ToggleHelpfulVote(ctx context.Context, id, userID string) (int, bool, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, reviewsCollection).ObserveDuration()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, false, ErrReviewNotFound
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"helpful_votes": 1})

	for attempt := 0; attempt < toggleAttempts; attempt++ {
		var review entity.Review

		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": objectID, "helpful_votes": userID},
			bson.M{"$pull": bson.M{"helpful_votes": userID}},
			opts,
		).Decode(&review)
		if err == nil {
			return len(review.HelpfulVotes), false, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, fmt.Errorf("failed to remove helpful vote: %w", err)
		}

		err = r.collection.FindOneAndUpdate(ctx,
			bson.M{"_id": objectID, "helpful_votes": bson.M{"$ne": userID}},
			bson.M{"$addToSet": bson.M{"helpful_votes": userID}},
			opts,
		).Decode(&review)
		if err == nil {
			return len(review.HelpfulVotes), true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, fmt.Errorf("failed to add helpful vote: %w", err)
		}

		// ни одно условие не совпало: либо отзыва нет, либо параллельный toggle успел между шагами
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return 0, false, fmt.Errorf("failed to check review: %w", err)
		}
		if count == 0 {
			return 0, false, ErrReviewNotFound
		}
	}

	return 0, false, ErrToggleContention
}

// AggregateForRecipient считает суммы и корзины звёзд по всем отзывам о пользователе, включая скрытые
func (r *reviewRepository) AggregateForRecipient(ctx context.Context, recipientID string) (*entity.RatingAggregate, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, reviewsCollection).ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"recipient_id": recipientID}}},
		{{Key: "$group", Value: bson.M{
			"_id":                 nil,
			"total":               bson.M{"$sum": 1},
			"rating_sum":          bson.M{"$sum": "$rating"},
			"communication_sum":   bson.M{"$sum": "$categories.communication"},
			"quality_of_work_sum": bson.M{"$sum": "$categories.quality_of_work"},
			"value_for_money_sum": bson.M{"$sum": "$categories.value_for_money"},
			"expertise_sum":       bson.M{"$sum": "$categories.expertise"},
			"professionalism_sum": bson.M{"$sum": "$categories.professionalism"},
			"stars_1":             starBucket(1),
			"stars_2":             starBucket(2),
			"stars_3":             starBucket(3),
			"stars_4":             starBucket(4),
			"stars_5":             starBucket(5),
		}}},
	}

	var results []entity.RatingAggregate
	if err := r.aggregate(ctx, pipeline, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &entity.RatingAggregate{}, nil
	}
	return &results[0], nil
}

// AggregateGlobal - сводка по всей коллекции для администраторов
func (r *reviewRepository) AggregateGlobal(ctx context.Context) (*entity.GlobalStatsAggregate, error) {
	defer metrics.NewDbTimer(serviceName, metrics.DbOpAggregate, reviewsCollection).ObserveDuration()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":                  nil,
			"total":                bson.M{"$sum": 1},
			"rating_sum":           bson.M{"$sum": "$rating"},
			"reported":             countIf(bson.M{"$eq": bson.A{"$is_reported", true}}),
			"hidden":               countIf(bson.M{"$eq": bson.A{"$is_hidden", true}}),
			"client_to_freelancer": countIf(bson.M{"$eq": bson.A{"$type", string(entity.ReviewTypeClientToFreelancer)}}),
			"freelancer_to_client": countIf(bson.M{"$eq": bson.A{"$type", string(entity.ReviewTypeFreelancerToClient)}}),
		}}},
	}

	var results []entity.GlobalStatsAggregate
	if err := r.aggregate(ctx, pipeline, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &entity.GlobalStatsAggregate{}, nil
	}
	return &results[0], nil
}

func (r *reviewRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpAggregate)
		return fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode aggregation: %w", err)
	}
	return nil
}

func starBucket(stars int) bson.M {
	return countIf(bson.M{"$eq": bson.A{"$rating", stars}})
}

func countIf(cond bson.M) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{cond, 1, 0}}}
}
