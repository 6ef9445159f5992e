package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"invoicetracker/calendar"
	"invoicetracker/database"
	"invoicetracker/normalization"
	apperrors "invoicetracker/server/errors"
)

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		sendError(c, apperrors.NewValidationError("Некорректный идентификатор", err))
		return 0, false
	}
	return id, true
}

// queryDate разбирает дату из параметра запроса; пустое или нечитаемое
// значение трактуется как отсутствие фильтра.
func queryDate(c *gin.Context, name string) *time.Time {
	if raw := c.Query(name); raw != "" {
		if parsed, ok := normalization.ParseDate(raw); ok {
			return &parsed
		}
	}
	return nil
}

func queryInt64(c *gin.Context, name string) int64 {
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}

func displayDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return normalization.FormatDisplayDate(*t)
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return normalization.FormatISODate(*t)
}

// invoiceView строка списка счетов в ответе API. Дата счета отображается
// как ДД.ММ.ГГГГ, даты оплаты и срока — как ГГГГ-ММ-ДД.
type invoiceView struct {
	ID                int64   `json:"id"`
	Number            string  `json:"number"`
	Date              string  `json:"date"`
	Amount            float64 `json:"amount"`
	ContractorID      int64   `json:"contractor_id"`
	ContractorName    string  `json:"contractor_name"`
	ContractorINN     string  `json:"contractor_inn"`
	PaymentDate       string  `json:"payment_date"`
	Deadline          string  `json:"deadline"`
	DeadlineDays      *int    `json:"deadline_days"`
	ResponsibleImport string  `json:"responsible_import"`
	MotivatedPerson   string  `json:"motivated_person"`
	Status            string  `json:"status"`
	ActsCount         int     `json:"acts_count"`
	ActsSum           float64 `json:"acts_sum"`
	FreeActsCount     int     `json:"free_acts_count"`
}

// handleListInvoices список счетов с фильтрацией и сортировкой
func (s *Server) handleListInvoices(c *gin.Context) {
	filter := database.InvoiceFilter{
		ContractorID:    queryInt64(c, "contractor_id"),
		MotivatedPerson: c.Query("motivated_person"),
		PaymentDateFrom: queryDate(c, "payment_date_from"),
		PaymentDateTo:   queryDate(c, "payment_date_to"),
		SortBy:          c.DefaultQuery("sort_by", "date"),
		SortDir:         c.DefaultQuery("sort_dir", "desc"),
	}

	items, err := s.db.ListInvoices(filter)
	if err != nil {
		sendError(c, err)
		return
	}

	views := make([]invoiceView, 0, len(items))
	for _, item := range items {
		views = append(views, invoiceView{
			ID:                item.ID,
			Number:            item.Number,
			Date:              displayDate(item.Date),
			Amount:            item.Amount,
			ContractorID:      item.ContractorID,
			ContractorName:    normalization.FormatContractorName(item.ContractorName),
			ContractorINN:     item.ContractorINN,
			PaymentDate:       isoDate(item.PaymentDate),
			Deadline:          isoDate(item.Deadline),
			DeadlineDays:      item.DeadlineDays,
			ResponsibleImport: item.ResponsibleImport,
			MotivatedPerson:   item.MotivatedPerson,
			Status:            item.Status,
			ActsCount:         item.ActsCount,
			ActsSum:           item.ActsSum,
			FreeActsCount:     item.FreeActsCount,
		})
	}
	c.JSON(http.StatusOK, views)
}

type invoiceUpdateRequest struct {
	PaymentDate     *string `json:"payment_date" form:"payment_date"`
	Deadline        *string `json:"deadline" form:"deadline"`
	MotivatedPerson *string `json:"motivated_person" form:"motivated_person"`
}

// handleUpdateInvoice частичное обновление счета: дата оплаты, срок,
// мотивированное лицо. Незаполненные поля не трогаются.
func (s *Server) handleUpdateInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req invoiceUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	var upd database.InvoiceUpdate
	if req.PaymentDate != nil && *req.PaymentDate != "" {
		parsed, _ := normalization.ParseDate(*req.PaymentDate)
		upd.PaymentDate = &parsed
	}
	if req.Deadline != nil && *req.Deadline != "" {
		parsed, _ := normalization.ParseDate(*req.Deadline)
		upd.Deadline = &parsed
	}
	upd.MotivatedPerson = req.MotivatedPerson

	if _, err := s.db.UpdateInvoice(id, upd); err != nil {
		sendError(c, err)
		return
	}
	sendSuccess(c)
}

type calculateDeadlineRequest struct {
	Days int `json:"days" form:"days"`
}

// handleCalculateDeadline рассчитывает срок оплаты: N рабочих дней от даты
// оплаты с учетом праздников РФ, и сохраняет его в счете.
func (s *Server) handleCalculateDeadline(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req calculateDeadlineRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}
	if req.Days <= 0 {
		sendError(c, apperrors.NewValidationError("Не указано количество рабочих дней", nil))
		return
	}

	invoice, err := s.db.GetInvoice(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if invoice == nil {
		sendError(c, apperrors.NewNotFoundError("Счёт не найден", nil))
		return
	}
	if invoice.PaymentDate == nil {
		sendError(c, apperrors.NewValidationError("Не указана дата оплаты", nil))
		return
	}

	holidays := calendar.HolidaysForYear(invoice.PaymentDate.Year())
	deadline := calendar.AddBusinessDays(*invoice.PaymentDate, req.Days, holidays)

	if err := s.db.SetInvoiceDeadline(id, deadline, req.Days); err != nil {
		sendError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"deadline": normalization.FormatISODate(deadline),
	})
}

// handleDeleteInvoice удаляет счет
func (s *Server) handleDeleteInvoice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := s.db.DeleteInvoice(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Счёт не найден", nil))
		return
	}
	sendSuccess(c)
}
