package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/model"
	"github.com/mfierro/gastos/internal/pipeline"
)

const defaultListLimit = 100

type messageResponse struct {
	WID        string          `json:"wid"`
	ChatID     string          `json:"chat_id"`
	ChatName   string          `json:"chat_name"`
	SenderID   string          `json:"sender_id"`
	SenderName string          `json:"sender_name"`
	TS         int64           `json:"ts"`
	Type       string          `json:"type"`
	Body       string          `json:"body"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Category   string          `json:"category"`
	MetaJSON   string          `json:"meta_json"`
}

type summaryResponse struct {
	MessageCount  int64           `json:"message_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	LastMessageTS *int64          `json:"last_message_ts"`
}

type clarifyRequest struct {
	Category string `json:"category" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListMessages(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := s.store.ListConfirmed(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(records))
}

func (s *Server) handleGetMessage(c *gin.Context) {
	rec, err := s.store.GetConfirmed(c.Request.Context(), c.Param("wid"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Message not found"})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(*rec))
}

func (s *Server) handleListPending(c *gin.Context) {
	records, err := s.store.ListPending(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(records))
}

func (s *Server) handleClarify(c *gin.Context) {
	var req clarifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "category is required"})
		return
	}

	err := pipeline.Clarify(c.Request.Context(), s.store, c.Param("wid"), req.Category)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "clarified"})
	case errors.Is(err, common.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Pending message not found"})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.store.Summary(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		MessageCount:  summary.MessageCount,
		TotalAmount:   summary.TotalAmount,
		LastMessageTS: summary.LastMessageTS,
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed",
		"request_id", c.GetString(requestIDKey),
		"path", c.Request.URL.Path,
		"error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

func toResponse(rec model.ExpenseRecord) messageResponse {
	return messageResponse{
		WID:        rec.WID,
		ChatID:     rec.ChatID,
		ChatName:   rec.ChatName,
		SenderID:   rec.SenderID,
		SenderName: rec.SenderName,
		TS:         rec.Timestamp,
		Type:       rec.Type,
		Body:       rec.Body,
		Amount:     rec.Amount,
		Currency:   rec.Currency,
		Category:   string(rec.Category),
		MetaJSON:   rec.MetaJSON,
	}
}

func toResponses(records []model.ExpenseRecord) []messageResponse {
	out := make([]messageResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toResponse(rec))
	}
	return out
}
