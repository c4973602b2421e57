package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// DeviceService manages device records for the console.
type DeviceService struct {
	devices repository.DeviceRepository
	clients repository.ClientRepository
}

// DeviceInput holds the editable device fields.
type DeviceInput struct {
	ClientID   int64
	Name       string
	Type       string
	MACAddress string
	Location   string
	Online     bool
}

// NewDeviceService constructs the service.
func NewDeviceService(devices repository.DeviceRepository, clients repository.ClientRepository) *DeviceService {
	return &DeviceService{devices: devices, clients: clients}
}

// CreateDevice validates and persists a new device for an existing client.
func (s *DeviceService) CreateDevice(ctx context.Context, input DeviceInput) (*domain.Device, error) {
	device := &domain.Device{
		ClientID:   input.ClientID,
		Name:       strings.TrimSpace(input.Name),
		Type:       strings.TrimSpace(input.Type),
		MACAddress: strings.TrimSpace(input.MACAddress),
		Location:   strings.TrimSpace(input.Location),
		Online:     input.Online,
	}
	if err := s.validate(ctx, device); err != nil {
		return nil, err
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, mapDeviceWriteError(err)
	}
	return device, nil
}

// UpdateDevice applies a console edit to an existing device.
func (s *DeviceService) UpdateDevice(ctx context.Context, id int64, input DeviceInput) (*domain.Device, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("device", map[string]any{"id": id})
		}
		return nil, err
	}
	device.ClientID = input.ClientID
	device.Name = strings.TrimSpace(input.Name)
	device.Type = strings.TrimSpace(input.Type)
	device.MACAddress = strings.TrimSpace(input.MACAddress)
	device.Location = strings.TrimSpace(input.Location)
	device.Online = input.Online
	if err := s.validate(ctx, device); err != nil {
		return nil, err
	}
	if err := s.devices.Update(ctx, device); err != nil {
		return nil, mapDeviceWriteError(err)
	}
	return device, nil
}

// GetDevice fetches one device.
func (s *DeviceService) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	device, err := s.devices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("device", map[string]any{"id": id})
		}
		return nil, err
	}
	return device, nil
}

// DeleteDevice removes a device; its protocols and their timelines cascade.
func (s *DeviceService) DeleteDevice(ctx context.Context, id int64) error {
	if err := s.devices.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("device", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// ListDevices returns devices ordered by client then name.
func (s *DeviceService) ListDevices(ctx context.Context, filter repository.DeviceFilter) ([]domain.Device, error) {
	return s.devices.List(ctx, filter)
}

func (s *DeviceService) validate(ctx context.Context, device *domain.Device) error {
	details := map[string]any{}
	if device.Name == "" {
		details["name"] = "required"
	}
	if device.MACAddress == "" {
		details["mac_address"] = "required"
	}
	if device.ClientID <= 0 {
		details["client_id"] = "required"
	} else if _, err := s.clients.GetByID(ctx, device.ClientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			details["client_id"] = "unknown client"
		} else {
			return err
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("device validation failed", details)
	}
	return nil
}

func mapDeviceWriteError(err error) error {
	if constraint, ok := apperrors.UniqueViolation(err); ok && constraint == "devices_mac_address_key" {
		return apperrors.NewValidationError("device validation failed", map[string]any{
			"mac_address": "a device with this MAC address already exists",
		})
	}
	return err
}
