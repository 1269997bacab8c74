package services

import (
	"context"
	"errors"
	"testing"

	"samadhan-setu/models"
	"samadhan-setu/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMailboxSubmit(t *testing.T) {
	mem := repository.NewMemory()
	mailbox := NewMailbox(discardLogger(), mem.Feedback())
	caller := models.Caller{ID: primitive.NewObjectID(), Role: models.RoleWorker}

	receipt, err := mailbox.Submit(context.Background(), caller, FeedbackInput{Subject: " Tools ", Message: "Need new shovels"})
	require.NoError(t, err)
	assert.False(t, receipt.ID.IsZero())
	assert.False(t, receipt.ReceivedAt.IsZero())
	assert.Equal(t, 1, mem.FeedbackCount())

	_, err = mailbox.Submit(context.Background(), caller, FeedbackInput{Subject: "Tools"})
	assert.True(t, errors.Is(err, models.ErrValidation))
	assert.Equal(t, 1, mem.FeedbackCount())

	_, err = mailbox.Submit(context.Background(), models.Caller{}, FeedbackInput{Subject: "a", Message: "b"})
	assert.True(t, errors.Is(err, models.ErrUnauthorized))
}
