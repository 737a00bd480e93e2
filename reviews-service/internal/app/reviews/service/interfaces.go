package service

import (
	"context"

	"gigboard/reviews-service/internal/app/reviews/entity"
)

// ReviewServiceInterface - операции реестра отзывов, которыми пользуются HTTP handlers и reviewsctl
type ReviewServiceInterface interface {
	SubmitReview(ctx context.Context, jobID, reviewerID, reviewerRole, recipientID string, payload entity.ReviewPayload) (*entity.Review, error)
	GetStatsForUser(ctx context.Context, userID string) (*entity.RatingStats, error)
	GetReview(ctx context.Context, reviewID string) (*entity.Review, error)
	GetReviewsForJob(ctx context.Context, jobID string) ([]entity.Review, error)
	GetReviewsForUser(ctx context.Context, userID string) ([]entity.Review, error)
	UpdateReview(ctx context.Context, reviewID, actorID string, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID, actorID, actorRole string) error
	ToggleHelpfulVote(ctx context.Context, reviewID, userID string) (*entity.HelpfulVoteResult, error)
	ReportReview(ctx context.Context, reviewID, reporterID, reason string) (*entity.Review, error)
	ModerateReportedReview(ctx context.Context, reviewID, adminID, adminRole, action, adminNotes string) (*entity.ModerationResult, error)
	ListReported(ctx context.Context) ([]entity.Review, error)
	GetGlobalStats(ctx context.Context) (*entity.GlobalStats, error)
}

var _ ReviewServiceInterface = (*ReviewService)(nil)
