package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "invoicetracker/server/errors"
)

// sendSuccess отвечает {"success": true}
func sendSuccess(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// sendErrorMessage отвечает {"success": false, "error": ...} с заданным статусом
func sendErrorMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// sendError отвечает по ошибке приложения. AppError несет собственный
// статус; любая другая ошибка считается внутренней и логируется целиком,
// наружу уходит только общее сообщение.
func sendError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		if appErr.Code == http.StatusInternalServerError {
			log.Printf("[HTTP] internal error: %v", appErr)
		}
		sendErrorMessage(c, appErr.StatusCode(), appErr.UserMessage())
		return
	}
	log.Printf("[HTTP] internal error: %v", err)
	sendErrorMessage(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}
