package handler

import (
	"net/http"

	"gigboard/pkg/logger"
	"gigboard/pkg/metrics"
	"gigboard/reviews-service/internal/app/reviews/entity"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(reviewHandler *ReviewHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("reviews-service"))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:   []string{logger.RequestIDHeader},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "reviews-service",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	reviews := router.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate())
	{
		reviews.POST("/", reviewHandler.SubmitReview)
		reviews.GET("/job/:job_id", reviewHandler.GetReviewsForJob)
		reviews.GET("/user/:user_id", reviewHandler.GetReviewsForUser)
		reviews.GET("/user/:user_id/stats", reviewHandler.GetUserStats)
		reviews.PATCH("/:review_id", reviewHandler.UpdateReview)
		reviews.DELETE("/:review_id", reviewHandler.DeleteReview)
		reviews.POST("/:review_id/helpful", reviewHandler.ToggleHelpfulVote)
		reviews.POST("/:review_id/report", reviewHandler.ReportReview)
	}

	admin := router.Group("/admin/reviews")
	admin.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/reported", reviewHandler.ListReported)
		admin.POST("/:review_id/moderate", reviewHandler.ModerateReview)
		admin.GET("/stats", reviewHandler.GetGlobalStats)
	}

	return router
}
