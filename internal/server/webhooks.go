package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/deskhivelabs/deskhive/internal/payment/domain"
	"github.com/deskhivelabs/deskhive/internal/payment/webhook"
)

// IngestWebhook
// POST /webhooks/:provider
//
// Providers retry on non-2xx, so only conditions a retry could fix return
// an error status.
func (s *Server) IngestWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable payload"})
		return
	}

	err = s.webhooks.IngestWebhook(c.Request.Context(), c.Param("provider"), payload, c.Request.Header)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, paymentdomain.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown provider"})
	case errors.Is(err, webhook.ErrInvalidPayload), errors.Is(err, webhook.ErrInvalidProvider):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "processing failed"})
	}
}
