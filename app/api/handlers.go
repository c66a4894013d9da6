package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobcast/app/database"
	"jobcast/app/pipeline"
	"jobcast/app/subscription"
)

func NewHandler(subscriptions SubscriptionService, runner CycleRunner,
	subscriberRepo database.SubscriberRepository, watermarkRepo database.WatermarkRepository) *Handler {
	return &Handler{
		subscriptions:  subscriptions,
		runner:         runner,
		subscriberRepo: subscriberRepo,
		watermarkRepo:  watermarkRepo,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	email, err := h.subscriptions.Register(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidDomain):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email domain is not allowed. Use a Gmail or academic address."})
		case errors.Is(err, subscription.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "This email is already registered"})
		default:
			slog.Error("Registration failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register subscriber"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Verification email sent",
		"email":   email,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	email, err := h.subscriptions.ConfirmVerification(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Verification link is invalid or has expired"})
		case errors.Is(err, subscription.ErrUnknownSubscriber):
			c.JSON(http.StatusNotFound, gin.H{"error": "No registration found for this email"})
		default:
			slog.Error("Verification failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified. You will now receive job alerts.",
		"email":   email,
	})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	email, err := h.subscriptions.ConfirmUnsubscribe(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsubscribe link is invalid"})
		case errors.Is(err, subscription.ErrUnknownSubscriber):
			c.JSON(http.StatusNotFound, gin.H{"error": "No subscription found for this email"})
		default:
			slog.Error("Unsubscribe failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsubscribe"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You have been unsubscribed from job alerts",
		"email":   email,
	})
}

func (h *Handler) RunJobAlert(c *gin.Context) {
	stats, err := h.runner.RunCycle(c.Request.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrCycleInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "A job alert cycle is already running"})
			return
		}
		slog.Error("Job alert cycle failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Job alert cycle failed"})
		return
	}

	c.JSON(http.StatusOK, cycleResponse(stats))
}

func cycleResponse(stats *pipeline.Stats) gin.H {
	return gin.H{
		"status":           "success",
		"videos_processed": stats.VideosProcessed,
		"videos_with_jobs": stats.VideosWithJobs,
		"jobs_extracted":   stats.JobsExtracted,
		"emails_sent":      stats.EmailsSent,
		"emails_failed":    stats.EmailsFailed,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if total, err := h.subscriberRepo.GetSubscriberCount(); err == nil {
		health["subscribers"] = total
	}
	if eligible, err := h.subscriberRepo.GetEligibleCount(); err == nil {
		health["eligible_subscribers"] = eligible
	}
	if watermark, err := h.watermarkRepo.GetWatermark(pipeline.WatermarkID); err == nil && watermark != nil {
		health["last_processed_at"] = watermark.LastProcessedAt.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}
