package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicetracker/normalization"
	apperrors "invoicetracker/server/errors"
)

// handleListContractors список контрагентов. Название отдается в отображаемом
// виде: слова с заглавной буквы, правовая форма без изменений.
func (s *Server) handleListContractors(c *gin.Context) {
	contractors, err := s.db.ListContractors()
	if err != nil {
		sendError(c, err)
		return
	}

	views := make([]gin.H, 0, len(contractors))
	for _, contractor := range contractors {
		views = append(views, gin.H{
			"id":   contractor.ID,
			"name": normalization.FormatContractorName(contractor.Name),
			"inn":  contractor.INN,
		})
	}
	c.JSON(http.StatusOK, views)
}

type contractorINNRequest struct {
	INN string `json:"inn" form:"inn"`
}

// handleUpdateContractorINN задает ИНН контрагента вручную
func (s *Server) handleUpdateContractorINN(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req contractorINNRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	found, err := s.db.UpdateContractorINN(id, strings.TrimSpace(req.INN))
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Контрагент не найден", nil))
		return
	}
	sendSuccess(c)
}
