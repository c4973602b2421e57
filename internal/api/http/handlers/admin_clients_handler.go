package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/admin"
	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AdminClientsHandler exposes the console surface for client records.
type AdminClientsHandler struct {
	clients *service.ClientService
	cfg     config.AdminConfig
}

// NewAdminClientsHandler constructs handler.
func NewAdminClientsHandler(clients *service.ClientService, cfg config.AdminConfig) *AdminClientsHandler {
	return &AdminClientsHandler{clients: clients, cfg: cfg}
}

// List GET /admin/clients. Searchable by name and email, ordered by name.
func (h *AdminClientsHandler) List(c *fiber.Ctx) error {
	page := admin.NewPagination(
		parseInt(c.Query("page"), 1),
		parseInt(c.Query("page_size"), 0),
		h.cfg.DefaultPageSize,
		h.cfg.MaxPageSize,
	)
	filter := repository.ClientFilter{
		SearchTerm: optionalString(c.Query("q")),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}

	clients, err := h.clients.ListClients(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, clientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items, "page": page.Page, "page_size": page.PageSize})
}

// Create POST /admin/clients.
func (h *AdminClientsHandler) Create(c *fiber.Ctx) error {
	var req dto.ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.clients.CreateClient(c.Context(), service.ClientInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// Get GET /admin/clients/:id.
func (h *AdminClientsHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	client, err := h.clients.GetClient(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Update PUT /admin/clients/:id.
func (h *AdminClientsHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ClientRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	client, err := h.clients.UpdateClient(c.Context(), id, service.ClientInput{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Delete DELETE /admin/clients/:id. Devices and their protocols cascade.
func (h *AdminClientsHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.clients.DeleteClient(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
