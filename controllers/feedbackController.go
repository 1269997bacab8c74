package controllers

import (
	"log/slog"
	"net/http"

	"samadhan-setu/services"

	"github.com/gin-gonic/gin"
)

type FeedbackController struct {
	mailbox *services.Mailbox
	log     *slog.Logger
}

func NewFeedbackController(log *slog.Logger, mailbox *services.Mailbox) *FeedbackController {
	return &FeedbackController{mailbox: mailbox, log: log}
}

// SubmitFeedback stores a message for the authorities
func (fc *FeedbackController) SubmitFeedback(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	var input services.FeedbackInput
	if !bindJSON(c, &input) {
		return
	}

	receipt, err := fc.mailbox.Submit(c.Request.Context(), caller, input)
	if err != nil {
		respondError(c, fc.log, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}
