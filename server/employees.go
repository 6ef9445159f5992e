package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"invoicetracker/database"
	apperrors "invoicetracker/server/errors"
)

// handleListEmployees список сотрудников
func (s *Server) handleListEmployees(c *gin.Context) {
	employees, err := s.db.ListEmployees()
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

type employeeRequest struct {
	LastName   string `json:"last_name" form:"last_name"`
	FirstName  string `json:"first_name" form:"first_name"`
	MiddleName string `json:"middle_name" form:"middle_name"`
	Department string `json:"department" form:"department"`
	Position   string `json:"position" form:"position"`
}

// handleAddEmployee добавляет сотрудника. Пара (фамилия, имя) уникальна.
func (s *Server) handleAddEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	req.LastName = strings.TrimSpace(req.LastName)
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.LastName == "" || req.FirstName == "" {
		sendError(c, apperrors.NewValidationError("Фамилия и имя обязательны", nil))
		return
	}

	employee := &database.Employee{
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: strings.TrimSpace(req.MiddleName),
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),
	}
	if err := s.db.AddEmployee(employee); err != nil {
		if errors.Is(err, database.ErrEmployeeExists) {
			sendError(c, apperrors.NewConflictError(err.Error(), err))
			return
		}
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

// handleUpdateEmployee обновляет данные сотрудника
func (s *Server) handleUpdateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req employeeRequest
	if err := c.ShouldBind(&req); err != nil {
		sendError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return
	}

	req.LastName = strings.TrimSpace(req.LastName)
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.LastName == "" || req.FirstName == "" {
		sendError(c, apperrors.NewValidationError("Фамилия и имя обязательны", nil))
		return
	}

	found, err := s.db.UpdateEmployee(&database.Employee{
		ID:         id,
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: strings.TrimSpace(req.MiddleName),
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),
	})
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Сотрудник не найден", nil))
		return
	}
	sendSuccess(c)
}

// handleDeleteEmployee удаляет сотрудника
func (s *Server) handleDeleteEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	found, err := s.db.DeleteEmployee(id)
	if err != nil {
		sendError(c, err)
		return
	}
	if !found {
		sendError(c, apperrors.NewNotFoundError("Сотрудник не найден", nil))
		return
	}
	sendSuccess(c)
}
