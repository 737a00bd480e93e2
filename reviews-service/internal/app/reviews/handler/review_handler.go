package handler

import (
	"errors"
	"net/http"

	"gigboard/pkg/logger"
	"gigboard/reviews-service/internal/app/reviews/entity"
	"gigboard/reviews-service/internal/app/reviews/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, err := h.reviewService.SubmitReview(c.Request.Context(), req.JobID, userID, role, req.RecipientID, req.ReviewPayload)
	if err != nil {
		respondError(c, err, "Failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) GetReviewsForJob(c *gin.Context) {
	reviews, err := h.reviewService.GetReviewsForJob(c.Request.Context(), c.Param("job_id"))
	if err != nil {
		respondError(c, err, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{Reviews: reviews, Total: len(reviews)})
}

func (h *ReviewHandler) GetReviewsForUser(c *gin.Context) {
	reviews, err := h.reviewService.GetReviewsForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "Failed to get reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{Reviews: reviews, Total: len(reviews)})
}

func (h *ReviewHandler) GetUserStats(c *gin.Context) {
	stats, err := h.reviewService.GetStatsForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err, "Failed to get rating stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("review_id"), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to update review")
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("review_id"), userID, role); err != nil {
		respondError(c, err, "Failed to delete review")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{
		Message: "Review deleted successfully",
	})
}

func (h *ReviewHandler) ToggleHelpfulVote(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.reviewService.ToggleHelpfulVote(c.Request.Context(), c.Param("review_id"), userID)
	if err != nil {
		respondError(c, err, "Failed to toggle helpful vote")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) ReportReview(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req entity.ReportReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, err := h.reviewService.ReportReview(c.Request.Context(), c.Param("review_id"), userID, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to report review")
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) ListReported(c *gin.Context) {
	reviews, err := h.reviewService.ListReported(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list reported reviews")
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{Reviews: reviews, Total: len(reviews)})
}

func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var req entity.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	result, err := h.reviewService.ModerateReportedReview(c.Request.Context(), c.Param("review_id"), userID, role, req.Action, req.AdminNotes)
	if err != nil {
		respondError(c, err, "Failed to moderate review")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) GetGlobalStats(c *gin.Context) {
	stats, err := h.reviewService.GetGlobalStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to get review stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// currentUser достаёт данные, положенные Authenticate. При отсутствии сразу отвечает 401
func currentUser(c *gin.Context) (string, string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return userID, c.GetString("role"), true
}

// respondError переводит вид ошибки в HTTP статус. Внутренние ошибки наружу не отдаются
func respondError(c *gin.Context, err error, fallback string) {
	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	c.JSON(status, entity.ErrorResponse{Error: service.KindName(err), Message: err.Error()})
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
