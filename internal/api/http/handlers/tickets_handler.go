package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repairshop-service/internal/api/dto"
	"github.com/spec-kit/repairshop-service/internal/auth"
	"github.com/spec-kit/repairshop-service/internal/domain"
	"github.com/spec-kit/repairshop-service/internal/repository"
	"github.com/spec-kit/repairshop-service/internal/service"
	apperrors "github.com/spec-kit/repairshop-service/pkg/util"
)

// TicketsHandler exposes the lifecycle engine over HTTP.
type TicketsHandler struct {
	engine *service.LifecycleService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(engine *service.LifecycleService) *TicketsHandler {
	return &TicketsHandler{engine: engine}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DeviceID == "" {
		return apperrors.NewValidationError("device_id required", nil)
	}

	input := service.TicketCreateInput{
		DeviceID:         req.DeviceID,
		BranchID:         req.BranchID,
		TechnicianID:     req.TechnicianID,
		Priority:         req.Priority,
		ErrorDescription: req.ErrorDescription,
		EstimatedCost:    req.EstimatedCost,
		InternalNotes:    req.InternalNotes,
	}
	ticket, err := h.engine.Create(c.Context(), input, auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketFilter(c)
	tickets, err := h.engine.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// SearchTickets GET /tickets/search.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		return apperrors.NewValidationError("q required", nil)
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	tickets, err := h.engine.Search(c.Context(), term, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	includeDeleted := c.QueryBool("include_deleted", false)
	ticket, err := h.engine.Get(c.Context(), c.Params("id"), includeDeleted)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// tri-state technician_id: only a present key updates the assignment
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err == nil {
		_, req.TechnicianSet = raw["technician_id"]
	}

	input := service.TicketUpdateInput{
		Status:           req.Status,
		Priority:         req.Priority,
		ErrorDescription: req.ErrorDescription,
		EstimatedCost:    req.EstimatedCost,
		ActualCost:       req.ActualCost,
		InternalNotes:    req.InternalNotes,
		TechnicianID:     req.TechnicianID,
		UpdateTechnician: req.TechnicianSet,
		CompletedAt:      req.CompletedAt,
	}
	ticket, err := h.engine.Update(c.Context(), c.Params("id"), input, auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	deleted, err := h.engine.Delete(c.Context(), c.Params("id"), auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": deleted}})
}

// RestoreTicket POST /tickets/:id/restore.
func (h *TicketsHandler) RestoreTicket(c *fiber.Ctx) error {
	restored, err := h.engine.Restore(c.Context(), c.Params("id"), auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"restored": restored}})
}

// ChangeStatus POST /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	ticket, err := h.engine.ChangeStatus(c.Context(), c.Params("id"), req.Status, req.Reason, auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.engine.Assign(c.Context(), c.Params("id"), req.TechnicianID, req.Reason, auth.ActorFromContext(c), auth.OriginFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// StatusHistory GET /tickets/:id/history.
func (h *TicketsHandler) StatusHistory(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 100)
	entries, err := h.engine.StatusHistory(c.Context(), c.Params("id"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.StatusHistoryResponse{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Reason:    entry.Reason,
			ChangedBy: entry.ChangedBy,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// WorkLogs GET /tickets/:id/worklogs.
func (h *TicketsHandler) WorkLogs(c *fiber.Ctx) error {
	entries, err := h.engine.WorkLogs(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WorkLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.WorkLogResponse{
			ID:           entry.ID,
			TechnicianID: entry.TechnicianID,
			Description:  entry.Description,
			StartedAt:    entry.StartedAt,
			EndedAt:      entry.EndedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketFilter(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if technician := c.Query("technician_id"); technician != "" {
		filter.TechnicianID = &technician
	}
	if branch := c.Query("branch_id"); branch != "" {
		filter.BranchID = &branch
	}
	filter.IncludeDeleted = c.QueryBool("include_deleted", false)
	filter.ExcludeReturned = c.QueryBool("exclude_returned", false)
	filter.OnlyReturned = c.QueryBool("only_returned", false)

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               ticket.ID,
		Number:           ticket.Number,
		DeviceID:         ticket.DeviceID,
		BranchID:         ticket.BranchID,
		TechnicianID:     ticket.TechnicianID,
		Status:           ticket.Status,
		Priority:         ticket.Priority,
		ErrorDescription: ticket.ErrorDescription,
		EstimatedCost:    ticket.EstimatedCost,
		ActualCost:       ticket.ActualCost,
		InternalNotes:    ticket.InternalNotes,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
		CompletedAt:      ticket.CompletedAt,
		DeletedAt:        ticket.DeletedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
