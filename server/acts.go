package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicetracker/database"
	"invoicetracker/normalization"
	apperrors "invoicetracker/server/errors"
)

// actView строка списка актов в ответе API
type actView struct {
	ID                   int64   `json:"id"`
	Number               string  `json:"number"`
	Filename             string  `json:"filename"`
	SigningDate          string  `json:"signing_date"`
	Amount               float64 `json:"amount"`
	ContractorID         int64   `json:"contractor_id"`
	ContractorName       string  `json:"contractor_name"`
	ContractorINN        string  `json:"contractor_inn"`
	InvoiceID            *int64  `json:"invoice_id"`
	InvoiceNumber        string  `json:"invoice_number"`
	InvoiceDate          string  `json:"invoice_date"`
	ResponsibleManager   string  `json:"responsible_manager"`
	HasAvailableInvoices bool    `json:"has_available_invoices"`
}

func actListView(items []*database.ActListItem) []actView {
	views := make([]actView, 0, len(items))
	for _, item := range items {
		views = append(views, actView{
			ID:                   item.ID,
			Number:               item.Number,
			Filename:             item.Filename,
			SigningDate:          displayDate(item.SigningDate),
			Amount:               item.Amount,
			ContractorID:         item.ContractorID,
			ContractorName:       normalization.FormatContractorName(item.ContractorName),
			ContractorINN:        item.ContractorINN,
			InvoiceID:            item.InvoiceID,
			InvoiceNumber:        item.InvoiceNumber,
			InvoiceDate:          displayDate(item.InvoiceDate),
			ResponsibleManager:   item.ResponsibleManager,
			HasAvailableInvoices: item.HasAvailableInvoices,
		})
	}
	return views
}

func actFilterFromQuery(c *gin.Context, defaultSort string) database.ActFilter {
	return database.ActFilter{
		ContractorID:       queryInt64(c, "contractor_id"),
		ResponsibleManager: c.Query("responsible_manager"),
		DateFrom:           queryDate(c, "date_from"),
		DateTo:             queryDate(c, "date_to"),
		SortBy:             c.DefaultQuery("sort_by", defaultSort),
		SortDir:            c.DefaultQuery("sort_dir", "desc"),
	}
}

// handleListLinkedActs акты, привязанные к счетам
func (s *Server) handleListLinkedActs(c *gin.Context) {
	items, err := s.db.ListActs(true, actFilterFromQuery(c, "signing_date"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, actListView(items))
}

// handleListUnlinkedActs акты без привязки к счету
func (s *Server) handleListUnlinkedActs(c *gin.Context) {
	items, err := s.db.ListActs(false, actFilterFromQuery(c, "signing_date"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, actListView(items))
}

// handleFreeActs непривязанные акты указанного контрагента, кандидаты для
// привязки к его счетам
func (s *Server) handleFreeActs(c *gin.Context) {
	contractorID, ok := parseID(c, "contractorID")
	if !ok {
		return
	}

	acts, err := s.db.FreeActs(contractorID)
	if err != nil {
		sendError(c, err)
		return
	}

	views := make([]gin.H, 0, len(acts))
	for _, act := range acts {
		views = append(views, gin.H{
			"id":           act.ID,
			"number":       act.Number,
			"signing_date": displayDate(act.SigningDate),
			"amount":       act.Amount,
		})
	}
	c.JSON(http.StatusOK, views)
}

// handleActsByInvoice акты, привязанные к конкретному счету
func (s *Server) handleActsByInvoice(c *gin.Context) {
	invoiceID, ok := parseID(c, "invoiceID")
	if !ok {
		return
	}

	acts, err := s.db.ActsByInvoice(invoiceID)
	if err != nil {
		sendError(c, err)
		return
	}

	views := make([]gin.H, 0, len(acts))
	for _, act := range acts {
		views = append(views, gin.H{
			"id":           act.ID,
			"number":       act.Number,
			"signing_date": displayDate(act.SigningDate),
			"amount":       act.Amount,
		})
	}
	c.JSON(http.StatusOK, views)
}

type actUpdateRequest struct {
	ResponsibleManager *string `json:"responsible_manager" form:"responsible_manager"`
	InvoiceID          *int64  `json:"invoice_id" form:"invoice_id"`
}

// handleUpdateAct частичное обновление акта. invoice_id = 0 снимает привязку.
func (s *Server) handleUpdateAct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req actUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	found, err := s.db.UpdateAct(id, database.ActUpdate{
		ResponsibleManager: req.ResponsibleManager,
		InvoiceID:          req.InvoiceID,
	})
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Акт не найден", nil))
		return
	}
	sendSuccess(c)
}

type linkActRequest struct {
	InvoiceID int64 `json:"invoice_id" form:"invoice_id"`
}

// handleLinkAct привязывает акт к счету
func (s *Server) handleLinkAct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req linkActRequest
	if err := c.ShouldBind(&req); err != nil || req.InvoiceID <= 0 {
		sendError(c, apperrors.NewValidationError("Не указан счёт для привязки", err))
		return
	}

	invoice, err := s.db.GetInvoice(req.InvoiceID)
	if err != nil {
		sendError(c, err)
		return
	}
	if invoice == nil {
		sendError(c, apperrors.NewNotFoundError("Счёт не найден", nil))
		return
	}

	found, err := s.db.LinkAct(id, req.InvoiceID)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Акт не найден", nil))
		return
	}
	sendSuccess(c)
}

// handleUnlinkAct снимает привязку акта к счету
func (s *Server) handleUnlinkAct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := s.db.UnlinkAct(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Акт не найден", nil))
		return
	}
	sendSuccess(c)
}

// handleDeleteAct удаляет акт
func (s *Server) handleDeleteAct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := s.db.DeleteAct(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Акт не найден", nil))
		return
	}
	sendSuccess(c)
}
