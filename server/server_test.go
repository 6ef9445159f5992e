package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicetracker/database"
	"invoicetracker/internal/config"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:             "8080",
		DatabasePath:     ":memory:",
		UploadsDir:       t.TempDir(),
		ImportRatePerSec: 100,
		ImportRateBurst:  100,
	}
	srv := New(cfg, db)
	return srv, srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status"`)
}

func TestEmployeesAPI(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/employees", gin.H{
		"last_name":  "Петров",
		"first_name": "Иван",
		"department": "РПО",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// повторное добавление той же пары (фамилия, имя)
	rec = doJSON(t, router, http.MethodPost, "/api/employees", gin.H{
		"last_name":  "Петров",
		"first_name": "Иван",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// фамилия и имя обязательны
	rec = doJSON(t, router, http.MethodPost, "/api/employees", gin.H{"last_name": "Петров"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var employees []database.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &employees))
	require.Len(t, employees, 1)
	assert.Equal(t, "Петров", employees[0].LastName)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/employees/%d", employees[0].ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/employees/%d", employees[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Сотрудник не найден")
}

func TestStopWordsAPI(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/stop-words", gin.H{"word": "аванс"})
	require.Equal(t, http.StatusOK, rec.Code)

	// повтор не является ошибкой
	rec = doJSON(t, router, http.MethodPost, "/api/stop-words", gin.H{"word": "аванс"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/stop-words", gin.H{"word": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/stop-words", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var words []database.StopWord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &words))
	require.Len(t, words, 1)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/stop-words/%d", words[0].ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContractorsAPI(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/contractors/%d/inn", contractor.ID), gin.H{
		"inn": "7707083893",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/contractors/99999/inn", gin.H{"inn": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Контрагент не найден")

	rec = doJSON(t, router, http.MethodGet, "/api/contractors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var contractors []database.Contractor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contractors))
	require.Len(t, contractors, 1)
	assert.Equal(t, "7707083893", contractors[0].INN)
}

// Названия контрагентов в списках отдаются в отображаемом виде
func TestContractorNameDisplay(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО вектор", "")
	require.NoError(t, err)
	assert.Equal(t, "вектор ООО", contractor.Name)

	act := &database.Act{Number: "А-1", Amount: 500, ContractorID: contractor.ID}
	require.NoError(t, database.InsertAct(srv.db.Conn(), act))

	rec := doJSON(t, router, http.MethodGet, "/api/contractors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Вектор ООО")

	rec = doJSON(t, router, http.MethodGet, "/api/acts/unlinked", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var acts []actView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acts))
	require.Len(t, acts, 1)
	assert.Equal(t, "Вектор ООО", acts[0].ContractorName)
}

func TestInvoicesAPI(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)

	invoice := &database.Invoice{
		Number:       "С-1",
		Amount:       1000,
		ContractorID: contractor.ID,
		Status:       database.StatusUnpaid,
	}
	require.NoError(t, database.InsertInvoice(srv.db.Conn(), invoice))

	rec := doJSON(t, router, http.MethodGet, "/api/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []invoiceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "С-1", items[0].Number)
	assert.Equal(t, "Ромашка ООО", items[0].ContractorName)

	// обновление даты оплаты
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/invoices/%d", invoice.ID), gin.H{
		"payment_date": "15.03.2024",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// расчет срока: пятница 15.03.2024 плюс 1 рабочий день
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/invoices/%d/calculate-deadline", invoice.ID), gin.H{
		"days": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var deadlineResp struct {
		Success  bool   `json:"success"`
		Deadline string `json:"deadline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deadlineResp))
	assert.True(t, deadlineResp.Success)
	assert.Equal(t, "2024-03-18", deadlineResp.Deadline)

	rec = doJSON(t, router, http.MethodPost, "/api/invoices/99999/calculate-deadline", gin.H{"days": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Счёт не найден")

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoice.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// Расчет срока без даты оплаты отклоняется
func TestCalculateDeadlineRequiresPaymentDate(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)

	invoice := &database.Invoice{Number: "С-1", Amount: 1000, ContractorID: contractor.ID, Status: database.StatusUnpaid}
	require.NoError(t, database.InsertInvoice(srv.db.Conn(), invoice))

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/invoices/%d/calculate-deadline", invoice.ID), gin.H{"days": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Не указана дата оплаты")
}

// Нулевое или отсутствующее количество рабочих дней отклоняется
func TestCalculateDeadlineRequiresDays(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)

	paymentDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	invoice := &database.Invoice{
		Number:       "С-1",
		Amount:       1000,
		ContractorID: contractor.ID,
		Status:       database.StatusUnpaid,
		PaymentDate:  &paymentDate,
	}
	require.NoError(t, database.InsertInvoice(srv.db.Conn(), invoice))

	for _, body := range []gin.H{{}, {"days": 0}, {"days": -2}} {
		rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/invoices/%d/calculate-deadline", invoice.ID), body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Не указано количество рабочих дней")
	}
}

// Все ошибки API отдаются в одном конверте {"success": false, "error": ...}
func TestErrorResponseEnvelope(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodDelete, "/api/invoices/99999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Счёт не найден", resp.Error)

	rec = doJSON(t, router, http.MethodPost, "/api/invoices/abc", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Некорректный идентификатор")
}

func TestActsAPI(t *testing.T) {
	srv, router := newTestServer(t)

	contractor, err := database.GetOrCreateContractor(srv.db.Conn(), "ООО Ромашка", "")
	require.NoError(t, err)

	invoice := &database.Invoice{Number: "С-1", Amount: 1000, ContractorID: contractor.ID, Status: database.StatusUnpaid}
	require.NoError(t, database.InsertInvoice(srv.db.Conn(), invoice))

	act := &database.Act{Number: "А-1", Amount: 500, ContractorID: contractor.ID}
	require.NoError(t, database.InsertAct(srv.db.Conn(), act))

	rec := doJSON(t, router, http.MethodGet, "/api/acts/unlinked", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var unlinked []actView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unlinked))
	require.Len(t, unlinked, 1)
	assert.True(t, unlinked[0].HasAvailableInvoices)

	// привязка
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/acts/%d/link", act.ID), gin.H{
		"invoice_id": invoice.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/acts/linked", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var linked []actView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &linked))
	require.Len(t, linked, 1)
	assert.Equal(t, "С-1", linked[0].InvoiceNumber)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/acts/by-invoice/%d", invoice.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "А-1")

	// отвязка
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/acts/%d/unlink", act.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/acts/free/%d", contractor.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "А-1")

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/acts/%d", act.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/acts/%d", act.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Акт не найден")
}

// Импорт без файла в форме отклоняется до обработки
func TestImportRequiresFile(t *testing.T) {
	_, router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/import/1c", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
