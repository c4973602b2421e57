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

// AdminDevicesHandler exposes the console surface for device records.
type AdminDevicesHandler struct {
	devices *service.DeviceService
	cfg     config.AdminConfig
}

// NewAdminDevicesHandler constructs handler.
func NewAdminDevicesHandler(devices *service.DeviceService, cfg config.AdminConfig) *AdminDevicesHandler {
	return &AdminDevicesHandler{devices: devices, cfg: cfg}
}

// List GET /admin/devices. Filterable by online flag, type and client;
// searchable by device name, client name and MAC; ordered by client then name.
func (h *AdminDevicesHandler) List(c *fiber.Ctx) error {
	page := admin.NewPagination(
		parseInt(c.Query("page"), 1),
		parseInt(c.Query("page_size"), 0),
		h.cfg.DefaultPageSize,
		h.cfg.MaxPageSize,
	)
	filter := repository.DeviceFilter{
		ClientID:   parseOptionalInt64(c.Query("client_id")),
		Online:     parseOptionalBool(c.Query("online")),
		Type:       optionalString(c.Query("type")),
		SearchTerm: optionalString(c.Query("q")),
		Limit:      page.PageSize,
		Offset:     page.Offset(),
	}

	devices, err := h.devices.ListDevices(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.DeviceResponse, 0, len(devices))
	for i := range devices {
		items = append(items, deviceResponse(&devices[i]))
	}
	return c.JSON(fiber.Map{"data": items, "page": page.Page, "page_size": page.PageSize})
}

// Create POST /admin/devices.
func (h *AdminDevicesHandler) Create(c *fiber.Ctx) error {
	var req dto.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	device, err := h.devices.CreateDevice(c.Context(), deviceInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": deviceResponse(device)})
}

// Get GET /admin/devices/:id.
func (h *AdminDevicesHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	device, err := h.devices.GetDevice(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deviceResponse(device)})
}

// Update PUT /admin/devices/:id.
func (h *AdminDevicesHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.DeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	device, err := h.devices.UpdateDevice(c.Context(), id, deviceInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": deviceResponse(device)})
}

// Delete DELETE /admin/devices/:id. Protocols and their timelines cascade.
func (h *AdminDevicesHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.devices.DeleteDevice(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func deviceInput(req dto.DeviceRequest) service.DeviceInput {
	return service.DeviceInput{
		ClientID:   req.ClientID,
		Name:       req.Name,
		Type:       req.Type,
		MACAddress: req.MACAddress,
		Location:   req.Location,
		Online:     req.Online,
	}
}
