package api

import (
	"context"

	"jobcast/app/database"
	"jobcast/app/pipeline"
	"jobcast/app/subscription"
)

type SubscriptionService interface {
	Register(ctx context.Context, email string) (string, error)
	ConfirmVerification(ctx context.Context, tokenString string) (string, error)
	ConfirmUnsubscribe(ctx context.Context, tokenString string) (string, error)
}

var _ SubscriptionService = (*subscription.Service)(nil)

type CycleRunner interface {
	RunCycle(ctx context.Context) (*pipeline.Stats, error)
}

var _ CycleRunner = (*pipeline.Runner)(nil)

type Handler struct {
	subscriptions  SubscriptionService
	runner         CycleRunner
	subscriberRepo database.SubscriberRepository
	watermarkRepo  database.WatermarkRepository
}

type registerRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}
