package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigboard/pkg/logger"
	"gigboard/pkg/metrics"
	"gigboard/reviews-service/internal/app/reviews/entity"
	"gigboard/reviews-service/internal/app/reviews/infrastructure"
	"gigboard/reviews-service/internal/app/reviews/repository"

	"github.com/go-playground/validator/v10"
)

const (
	scoreRule   = "min=1,max=5"
	commentRule = "min=10"
)

// ReviewService - реестр отзывов: создание, уникальность, модерация и статистика.
// Состояние хранится только в MongoDB, блокировок в процессе нет
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	jobRepo    repository.JobRepository
	userRepo   repository.UserRepository
	statsCache repository.StatsCache // может быть nil
	notifier   infrastructure.Notifier
	validate   *validator.Validate
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	jobRepo repository.JobRepository,
	userRepo repository.UserRepository,
	statsCache repository.StatsCache,
	notifier infrastructure.Notifier,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		jobRepo:    jobRepo,
		userRepo:   userRepo,
		statsCache: statsCache,
		notifier:   notifier,
		validate:   validator.New(),
	}
}

// SubmitReview создает отзыв. Проверки идут строго по порядку, возвращается первая ошибка:
// заказ, получатель, статус заказа, участники заказа, роль, дубль, оценки, комментарий
func (s *ReviewService) SubmitReview(
	ctx context.Context,
	jobID, reviewerID, reviewerRole, recipientID string,
	payload entity.ReviewPayload,
) (*entity.Review, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, s.rejected(ErrJobNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, s.rejected(ErrRecipientNotFound)
		}
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}

	if job.Status != entity.JobStatusCompleted {
		return nil, s.rejected(ErrJobNotCompleted)
	}

	if job.ClientID == "" || job.HiredFreelancerID == "" {
		return nil, s.rejected(ErrJobPartiesMissing)
	}

	reviewType, ok := reviewTypeForRole(reviewerRole)
	if !ok {
		return nil, s.rejected(ErrRoleNotAllowed)
	}

	exists, err := s.reviewRepo.ExistsForTriple(ctx, jobID, reviewerID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, s.rejected(ErrAlreadyReviewed)
	}

	categories, err := s.resolveCategories(payload)
	if err != nil {
		return nil, s.rejected(err)
	}

	if err := s.validateComment(payload.Comment); err != nil {
		return nil, s.rejected(err)
	}

	isPublic := true
	if payload.IsPublic != nil {
		isPublic = *payload.IsPublic
	}

	review := &entity.Review{
		JobID:        jobID,
		ReviewerID:   reviewerID,
		RecipientID:  recipientID,
		Rating:       payload.Rating,
		Comment:      strings.TrimSpace(payload.Comment),
		Type:         reviewType,
		Categories:   categories,
		IsPublic:     isPublic,
		HelpfulVotes: []string{},
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// проигравший в гонке двух одинаковых запросов получает тот же Conflict
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, s.rejected(ErrAlreadyReviewed)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.RecordReviewSubmitted(string(review.Type), review.Rating)
	s.invalidateStats(ctx)

	s.notifier.Notify(ctx, entity.Notification{
		RecipientID: recipientID,
		Kind:        entity.NotificationReviewReceived,
		Title:       "New review received",
		Message:     fmt.Sprintf("You received a %d-star review for \"%s\"", review.Rating, job.Title),
		Data:        reviewData(review),
	})

	logger.Info().
		Str("review_id", review.ID.Hex()).
		Str("job_id", jobID).
		Str("reviewer_id", reviewerID).
		Str("recipient_id", recipientID).
		Str("type", string(reviewType)).
		Msg("Review submitted")

	return review, nil
}

// GetStatsForUser пересчитывает статистику по всем отзывам о пользователе (включая скрытые).
// Без отзывов возвращается нулевая статистика, не ошибка
func (s *ReviewService) GetStatsForUser(ctx context.Context, userID string) (*entity.RatingStats, error) {
	agg, err := s.reviewRepo.AggregateForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return BuildRatingStats(agg), nil
}

func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	return s.getReview(ctx, reviewID)
}

// GetReviewsForJob - видимые отзывы по заказу
func (s *ReviewService) GetReviewsForJob(ctx context.Context, jobID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job reviews: %w", err)
	}
	return reviews, nil
}

// GetReviewsForUser - видимые отзывы о пользователе
func (s *ReviewService) GetReviewsForUser(ctx context.Context, userID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByRecipientID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user reviews: %w", err)
	}
	return reviews, nil
}

// UpdateReview меняет оценки, комментарий и видимость. Доступно только автору.
// Не переданные категории сохраняют прежние значения
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, actorID string, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.ReviewerID != actorID {
		return nil, ErrNotReviewAuthor
	}

	if req.Rating != nil {
		if err := s.validateScore("rating", *req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}

	for _, c := range []struct {
		name  string
		value *int
		dst   *int
	}{
		{"communication", req.Communication, &review.Categories.Communication},
		{"quality_of_work", req.QualityOfWork, &review.Categories.QualityOfWork},
		{"value_for_money", req.ValueForMoney, &review.Categories.ValueForMoney},
		{"expertise", req.Expertise, &review.Categories.Expertise},
		{"professionalism", req.Professionalism, &review.Categories.Professionalism},
	} {
		if c.value == nil {
			continue
		}
		if err := s.validateScore(c.name, *c.value); err != nil {
			return nil, err
		}
		*c.dst = *c.value
	}

	if req.Comment != nil {
		if err := s.validateComment(*req.Comment); err != nil {
			return nil, err
		}
		review.Comment = strings.TrimSpace(*req.Comment)
	}

	if req.IsPublic != nil {
		review.IsPublic = *req.IsPublic
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.invalidateStats(ctx)
	return review, nil
}

// DeleteReview - удалить может автор или администратор
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, actorID, actorRole string) error {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.ReviewerID != actorID && actorRole != entity.RoleAdmin {
		return ErrNotReviewAuthor
	}

	if err := s.deleteReview(ctx, reviewID); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	logger.Info().Str("review_id", reviewID).Str("actor_id", actorID).Msg("Review deleted")
	return nil
}

// ToggleHelpfulVote ставит или снимает отметку "полезно" и возвращает новое число голосов
func (s *ReviewService) ToggleHelpfulVote(ctx context.Context, reviewID, userID string) (*entity.HelpfulVoteResult, error) {
	count, voted, err := s.reviewRepo.ToggleHelpfulVote(ctx, reviewID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to toggle helpful vote: %w", err)
	}

	metrics.RecordHelpfulToggle(voted)
	return &entity.HelpfulVoteResult{HelpfulCount: count, Voted: voted}, nil
}

// ReportReview - пожаловаться может только получатель отзыва. Повторная жалоба перезаписывает прежнюю
func (s *ReviewService) ReportReview(ctx context.Context, reviewID, reporterID, reason string) (*entity.Review, error) {
	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.RecipientID != reporterID {
		return nil, ErrNotReviewRecipient
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReportReasonRequired
	}

	reported, err := s.reviewRepo.MarkReported(ctx, reviewID, reporterID, reason, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to report review: %w", err)
	}

	s.invalidateStats(ctx)

	logger.Info().Str("review_id", reviewID).Str("reporter_id", reporterID).Msg("Review reported")
	return reported, nil
}

// ModerateReportedReview разбирает жалобу:
// delete - отзыв удаляется, approve - жалоба отклонена, reject - отзыв скрыт
func (s *ReviewService) ModerateReportedReview(
	ctx context.Context,
	reviewID, adminID, adminRole, action, adminNotes string,
) (*entity.ModerationResult, error) {
	if adminRole != entity.RoleAdmin {
		return nil, ErrAdminOnly
	}

	moderation := entity.ModerationAction(action)
	if !moderation.Valid() {
		return nil, ErrInvalidModerationAction
	}

	review, err := s.getReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsReported {
		return nil, ErrActiveReportNotFound
	}

	result := &entity.ModerationResult{Action: moderation}

	switch moderation {
	case entity.ModerationDelete:
		if err := s.deleteReview(ctx, reviewID); err != nil {
			return nil, err
		}
		result.Deleted = true

		for _, recipientID := range uniqueIDs(review.ReviewerID, review.RecipientID) {
			s.notifier.Notify(ctx, entity.Notification{
				RecipientID: recipientID,
				Kind:        entity.NotificationReviewDeleted,
				Title:       "Review removed",
				Message:     "A reported review was removed by moderators",
				Data:        reviewData(review),
			})
		}

	case entity.ModerationApprove:
		s.stampModeration(review, adminID, adminNotes)
		if err := s.resolveReport(ctx, review); err != nil {
			return nil, err
		}
		result.Review = review

		s.notifier.Notify(ctx, entity.Notification{
			RecipientID: review.ReviewerID,
			Kind:        entity.NotificationReportDismissed,
			Title:       "Report on your review dismissed",
			Message:     "Moderators reviewed a report on your review and kept it published",
			Data:        reviewData(review),
		})
		if review.ReportedBy != "" && review.ReportedBy != review.ReviewerID {
			s.notifier.Notify(ctx, entity.Notification{
				RecipientID: review.ReportedBy,
				Kind:        entity.NotificationReportDismissed,
				Title:       "Your report was reviewed",
				Message:     "Moderators reviewed your report and decided the review stays",
				Data:        reviewData(review),
			})
		}

	case entity.ModerationReject:
		s.stampModeration(review, adminID, adminNotes)
		review.IsPublic = false
		review.IsHidden = true
		review.ModerationReason = review.ReportReason
		if err := s.resolveReport(ctx, review); err != nil {
			return nil, err
		}
		result.Review = review

		for _, recipientID := range uniqueIDs(review.ReviewerID, review.RecipientID) {
			s.notifier.Notify(ctx, entity.Notification{
				RecipientID: recipientID,
				Kind:        entity.NotificationReviewHidden,
				Title:       "Review hidden",
				Message:     "A reported review was hidden by moderators",
				Data:        reviewData(review),
			})
		}
	}

	metrics.RecordModeration(string(moderation))
	s.invalidateStats(ctx)

	logger.Info().
		Str("review_id", reviewID).
		Str("admin_id", adminID).
		Str("action", string(moderation)).
		Msg("Reported review moderated")

	return result, nil
}

// ListReported - отзывы с активной жалобой
func (s *ReviewService) ListReported(ctx context.Context) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.ListReported(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reported reviews: %w", err)
	}
	return reviews, nil
}

// GetGlobalStats читает сводку из Redis, при промахе или ошибке кеша считает в MongoDB
func (s *ReviewService) GetGlobalStats(ctx context.Context) (*entity.GlobalStats, error) {
	if s.statsCache != nil {
		cached, err := s.statsCache.GetGlobalStats(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to read global stats from cache")
		} else if cached != nil {
			return cached, nil
		}
	}

	agg, err := s.reviewRepo.AggregateGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate global stats: %w", err)
	}

	stats := BuildGlobalStats(agg, time.Now().UTC())

	if s.statsCache != nil {
		if err := s.statsCache.SetGlobalStats(ctx, stats); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache global stats")
		}
	}

	return stats, nil
}

func (s *ReviewService) getReview(ctx context.Context, reviewID string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) deleteReview(ctx context.Context, reviewID string) error {
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *ReviewService) resolveReport(ctx context.Context, review *entity.Review) error {
	if err := s.reviewRepo.ResolveReport(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNoActiveReport) {
			return ErrActiveReportNotFound
		}
		return fmt.Errorf("failed to resolve report: %w", err)
	}
	return nil
}

func (s *ReviewService) stampModeration(review *entity.Review, adminID, adminNotes string) {
	now := time.Now().UTC()
	review.AdminNotes = strings.TrimSpace(adminNotes)
	review.ModeratedBy = adminID
	review.ModeratedAt = &now
}

// resolveCategories проверяет rating и переданные категории; пропущенные категории равны rating
func (s *ReviewService) resolveCategories(payload entity.ReviewPayload) (entity.CategoryRatings, error) {
	if err := s.validateScore("rating", payload.Rating); err != nil {
		return entity.CategoryRatings{}, err
	}

	pick := func(field string, value *int) (int, error) {
		if value == nil {
			return payload.Rating, nil
		}
		if err := s.validateScore(field, *value); err != nil {
			return 0, err
		}
		return *value, nil
	}

	var (
		c   entity.CategoryRatings
		err error
	)
	if c.Communication, err = pick("communication", payload.Communication); err != nil {
		return c, err
	}
	if c.QualityOfWork, err = pick("quality_of_work", payload.QualityOfWork); err != nil {
		return c, err
	}
	if c.ValueForMoney, err = pick("value_for_money", payload.ValueForMoney); err != nil {
		return c, err
	}
	if c.Expertise, err = pick("expertise", payload.Expertise); err != nil {
		return c, err
	}
	if c.Professionalism, err = pick("professionalism", payload.Professionalism); err != nil {
		return c, err
	}

	return c, nil
}

func (s *ReviewService) validateScore(field string, value int) error {
	if err := s.validate.Var(value, scoreRule); err != nil {
		return invalidScore(field, value)
	}
	return nil
}

// validateComment - длина в символах после обрезки пробелов
func (s *ReviewService) validateComment(comment string) error {
	if err := s.validate.Var(strings.TrimSpace(comment), commentRule); err != nil {
		return ErrCommentTooShort
	}
	return nil
}

func (s *ReviewService) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate stats cache")
	}
}

func (s *ReviewService) rejected(err error) error {
	metrics.RecordReviewRejected(KindName(err))
	return err
}

func reviewTypeForRole(role string) (entity.ReviewType, bool) {
	switch role {
	case entity.RoleClient:
		return entity.ReviewTypeClientToFreelancer, true
	case entity.RoleFreelancer:
		return entity.ReviewTypeFreelancerToClient, true
	}
	return "", false
}

func reviewData(review *entity.Review) map[string]string {
	return map[string]string{
		"review_id": review.ID.Hex(),
		"job_id":    review.JobID,
	}
}

func uniqueIDs(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
