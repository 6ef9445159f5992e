package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUpload сохраняет загруженный файл во временную папку под уникальным
// именем. Файл удаляется вызывающей стороной после обработки независимо
// от исхода импорта.
func (s *Server) saveUpload(c *gin.Context) (string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("file is required: %w", err)
	}

	if err := os.MkdirAll(s.cfg.UploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads dir: %w", err)
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".xlsx"
	}
	path := filepath.Join(s.cfg.UploadsDir, uuid.New().String()+ext)

	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("failed to save uploaded file: %w", err)
	}
	return path, nil
}

// importErrorStatus подбирает HTTP статус для ошибки импорта: неполный
// заголовок — ошибка данных клиента, остальное — сбой обработки.
func importErrorStatus(err error) int {
	if strings.HasPrefix(err.Error(), "Missing column") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handleImport1C принимает выгрузку счетов из 1С и возвращает протокол импорта
func (s *Server) handleImport1C(c *gin.Context) {
	path, err := s.saveUpload(c)
	if err != nil {
		sendErrorMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(path)

	report, err := s.oneC.Run(path)
	if err != nil {
		sendErrorMessage(c, importErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleImportSBIS принимает выгрузку документов из СБИС и возвращает протокол импорта
func (s *Server) handleImportSBIS(c *gin.Context) {
	path, err := s.saveUpload(c)
	if err != nil {
		sendErrorMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	defer os.Remove(path)

	report, err := s.sbis.Run(path)
	if err != nil {
		sendErrorMessage(c, importErrorStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}
