// Package server содержит HTTP API учета счетов и актов.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicetracker/database"
	"invoicetracker/importer"
	"invoicetracker/internal/config"
)

// Server HTTP сервер приложения
type Server struct {
	cfg  *config.Config
	db   *database.DB
	oneC *importer.OneCImporter
	sbis *importer.SBISImporter
}

// New создает сервер поверх открытой базы данных
func New(cfg *config.Config, db *database.DB) *Server {
	return &Server{
		cfg:  cfg,
		db:   db,
		oneC: importer.NewOneCImporter(db),
		sbis: importer.NewSBISImporter(db),
	}
}

// Router собирает маршруты API
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	api := router.Group("/api")

	api.GET("/health", s.handleHealth)

	// Импорт выгрузок ограничен по частоте: обработка файла дорогая
	imports := api.Group("/import", ImportRateLimit(s.cfg.ImportRatePerSec, s.cfg.ImportRateBurst))
	imports.POST("/1c", s.handleImport1C)
	imports.POST("/sbis", s.handleImportSBIS)

	api.GET("/invoices", s.handleListInvoices)
	api.POST("/invoices/:id", s.handleUpdateInvoice)
	api.POST("/invoices/:id/calculate-deadline", s.handleCalculateDeadline)
	api.DELETE("/invoices/:id", s.handleDeleteInvoice)

	api.GET("/acts/linked", s.handleListLinkedActs)
	api.GET("/acts/unlinked", s.handleListUnlinkedActs)
	api.GET("/acts/free/:contractorID", s.handleFreeActs)
	api.GET("/acts/by-invoice/:invoiceID", s.handleActsByInvoice)
	api.POST("/acts/:id", s.handleUpdateAct)
	api.POST("/acts/:id/link", s.handleLinkAct)
	api.POST("/acts/:id/unlink", s.handleUnlinkAct)
	api.DELETE("/acts/:id", s.handleDeleteAct)

	api.GET("/employees", s.handleListEmployees)
	api.POST("/employees", s.handleAddEmployee)
	api.POST("/employees/:id", s.handleUpdateEmployee)
	api.DELETE("/employees/:id", s.handleDeleteEmployee)

	api.GET("/stop-words", s.handleListStopWords)
	api.POST("/stop-words", s.handleAddStopWord)
	api.DELETE("/stop-words/:id", s.handleDeleteStopWord)

	api.GET("/contractors", s.handleListContractors)
	api.POST("/contractors/:id/inn", s.handleUpdateContractorINN)

	return router
}

// handleHealth проверка доступности сервера и базы данных
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
