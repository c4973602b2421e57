package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/admin"
	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AdminProtocolsHandler exposes the console surface for protocols and
// their append-only timelines.
type AdminProtocolsHandler struct {
	protocols *service.ProtocolService
	cfg       config.AdminConfig
	site      admin.Site
}

// NewAdminProtocolsHandler constructs handler.
func NewAdminProtocolsHandler(protocols *service.ProtocolService, cfg config.AdminConfig) *AdminProtocolsHandler {
	return &AdminProtocolsHandler{
		protocols: protocols,
		cfg:       cfg,
		site:      admin.Site{Title: cfg.SiteTitle, Header: cfg.SiteHeader},
	}
}

// Site GET /admin/site returns the static console chrome.
func (h *AdminProtocolsHandler) Site(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.site})
}

// FormSchema GET /admin/protocols/form-schema?editing= returns the field
// set for the requested mode.
func (h *AdminProtocolsHandler) FormSchema(c *fiber.Ctx) error {
	editing := c.QueryBool("editing", false)
	return c.JSON(fiber.Map{"data": admin.ProtocolFormView(editing)})
}

// List GET /admin/protocols. Filterable by status, device and client;
// searchable over description, MQTT topic and BUIC; newest first.
func (h *AdminProtocolsHandler) List(c *fiber.Ctx) error {
	page := admin.NewPagination(
		parseInt(c.Query("page"), 1),
		parseInt(c.Query("page_size"), 0),
		h.cfg.DefaultPageSize,
		h.cfg.MaxPageSize,
	)
	filter := repository.ProtocolFilter{
		DeviceID:   parseOptionalInt64(c.Query("device_id")),
		ClientID:   parseOptionalInt64(c.Query("client_id")),
		SearchTerm: optionalString(c.Query("q")),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ProtocolStatus(strings.TrimSpace(part)))
		}
	}

	protocols, err := h.protocols.ListProtocols(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProtocolSummary, 0, len(protocols))
	for i := range protocols {
		items = append(items, protocolSummary(&protocols[i]))
	}
	return c.JSON(fiber.Map{"data": items, "page": page.Page, "page_size": page.PageSize})
}

// Create POST /admin/protocols. Console creation goes through the same
// validation and technician auto-assignment as the workflow; the inline
// first update is optional here.
func (h *AdminProtocolsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	protocol, err := h.protocols.CreateProtocol(c.Context(), principal.User.ID, service.ProtocolCreateInput{
		DeviceID:       req.DeviceID,
		ClientID:       req.ClientID,
		BUIC:           req.BUIC,
		MQTTTopic:      req.MQTTTopic,
		ExamplePayload: req.ExamplePayload,
		Description:    req.Description,
		Status:         domain.ProtocolStatus(req.Status),
		InitialUpdate:  req.InitialUpdate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": protocolSummary(protocol)})
}

// Get GET /admin/protocols/:id returns the full detail with timeline.
func (h *AdminProtocolsHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.protocols.GetDetail(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": protocolDetail(detail)})
}

// Update PUT /admin/protocols/:id. The technician field is not part of
// the payload; the stored assignment is preserved.
func (h *AdminProtocolsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.EditProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	protocol, err := h.protocols.UpdateProtocol(c.Context(), principal.User.ID, id, service.ProtocolEditInput{
		DeviceID:       req.DeviceID,
		ClientID:       req.ClientID,
		BUIC:           req.BUIC,
		MQTTTopic:      req.MQTTTopic,
		ExamplePayload: req.ExamplePayload,
		Description:    req.Description,
		Status:         domain.ProtocolStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": protocolSummary(protocol)})
}

// Delete DELETE /admin/protocols/:id. The timeline cascades.
func (h *AdminProtocolsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.protocols.DeleteProtocol(c.Context(), principal.User.ID, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListUpdates GET /admin/protocols/:id/updates returns the timeline
// oldest first.
func (h *AdminProtocolsHandler) ListUpdates(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	timeline, err := h.protocols.ListTimeline(c.Context(), id)
	if err != nil {
		return err
	}
	items := make([]dto.ProtocolUpdateResponse, 0, len(timeline))
	for i := range timeline {
		items = append(items, protocolUpdateResponse(&timeline[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AppendUpdate POST /admin/protocols/:id/updates appends an immutable
// timeline entry authored by the caller.
func (h *AdminProtocolsHandler) AppendUpdate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AppendUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	update, err := h.protocols.AppendUpdate(c.Context(), principal.User.ID, id, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": protocolUpdateResponse(update)})
}
