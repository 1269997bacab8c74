package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"samadhan-setu/models"
	"samadhan-setu/repository"
)

// Mailbox stores feedback messages addressed to the authorities.
type Mailbox struct {
	feedback repository.FeedbackRepository
	now      func() time.Time
	log      *slog.Logger
}

func NewMailbox(log *slog.Logger, feedback repository.FeedbackRepository) *Mailbox {
	return &Mailbox{
		feedback: feedback,
		now:      time.Now,
		log:      log.With("service", "mailbox"),
	}
}

type FeedbackInput struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (m *Mailbox) Submit(ctx context.Context, caller models.Caller, in FeedbackInput) (*models.Receipt, error) {
	if err := Authorize(caller, models.ActionSubmitFeedback); err != nil {
		return nil, err
	}
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	fb := &models.Feedback{
		User:      caller.ID,
		Role:      caller.Role,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: m.now(),
	}
	if err := m.feedback.Insert(ctx, fb); err != nil {
		return nil, err
	}

	m.log.Info("feedback received", slog.String("feedback_id", fb.ID.Hex()), slog.String("user_id", caller.ID.Hex()))
	return &models.Receipt{ID: fb.ID, ReceivedAt: fb.CreatedAt}, nil
}
