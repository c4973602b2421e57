package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/admin"
	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// ProtocolsHandler serves the ticket-creation workflow and detail view.
type ProtocolsHandler struct {
	protocols *service.ProtocolService
	devices   *service.DeviceService
	clients   *service.ClientService
}

// NewProtocolsHandler constructs handler.
func NewProtocolsHandler(protocols *service.ProtocolService, devices *service.DeviceService, clients *service.ClientService) *ProtocolsHandler {
	return &ProtocolsHandler{protocols: protocols, devices: devices, clients: clients}
}

// NewForm GET /protocols/new returns the creation form schema together
// with the selectable devices, clients and statuses.
func (h *ProtocolsHandler) NewForm(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	devices, err := h.devices.ListDevices(c.Context(), repository.DeviceFilter{Limit: 1000})
	if err != nil {
		return err
	}
	clients, err := h.clients.ListClients(c.Context(), repository.ClientFilter{Limit: 1000})
	if err != nil {
		return err
	}

	deviceItems := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		deviceItems = append(deviceItems, deviceResponse(&devices[i]))
	}
	clientItems := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		clientItems = append(clientItems, clientResponse(&clients[i]))
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"form":     admin.ProtocolFormView(false),
			"devices":  deviceItems,
			"clients":  clientItems,
			"statuses": domain.ProtocolStatuses,
		},
	})
}

// Create POST /protocols runs the creation workflow: one protocol plus its
// first timeline entry, written as a single unit. On success the response
// carries a Location header for the new detail view.
func (h *ProtocolsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	initialUpdate := req.InitialUpdate
	if initialUpdate == nil {
		// the workflow always writes exactly one first entry, blank or not
		empty := ""
		initialUpdate = &empty
	}

	protocol, err := h.protocols.CreateProtocol(c.Context(), principal.User.ID, service.ProtocolCreateInput{
		DeviceID:       req.DeviceID,
		ClientID:       req.ClientID,
		BUIC:           req.BUIC,
		MQTTTopic:      req.MQTTTopic,
		ExamplePayload: req.ExamplePayload,
		Description:    req.Description,
		Status:         domain.ProtocolStatus(req.Status),
		InitialUpdate:  initialUpdate,
	})
	if err != nil {
		return err
	}

	c.Set("Location", fmt.Sprintf("/protocols/%d", protocol.ID))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": protocolSummary(protocol)})
}

// Detail GET /protocols/:id returns the protocol with its ordered timeline.
func (h *ProtocolsHandler) Detail(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

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
