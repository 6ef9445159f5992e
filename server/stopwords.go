package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "invoicetracker/server/errors"
)

// handleListStopWords список стоп-слов
func (s *Server) handleListStopWords(c *gin.Context) {
	words, err := s.db.ListStopWords()
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, words)
}

type stopWordRequest struct {
	Word string `json:"word" form:"word"`
}

// handleAddStopWord добавляет стоп-слово, повтор не является ошибкой
func (s *Server) handleAddStopWord(c *gin.Context) {
	var req stopWordRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	if strings.TrimSpace(req.Word) == "" {
		sendError(c, apperrors.NewValidationError("Стоп-слово не может быть пустым", nil))
		return
	}

	if err := s.db.AddStopWord(req.Word); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c)
}

// handleDeleteStopWord удаляет стоп-слово
func (s *Server) handleDeleteStopWord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := s.db.DeleteStopWord(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Стоп-слово не найдено", nil))
		return
	}
	sendSuccess(c)
}
