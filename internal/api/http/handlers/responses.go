package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/admin"
	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func clientResponse(client *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

func deviceResponse(device *domain.Device) dto.DeviceResponse {
	return dto.DeviceResponse{
		ID:              device.ID,
		ClientID:        device.ClientID,
		Name:            device.Name,
		Type:            device.Type,
		MACAddress:      device.MACAddress,
		Location:        device.Location,
		Online:          device.Online,
		OnlineIndicator: admin.OnlineIndicator(device.Online),
		CreatedAt:       device.CreatedAt,
		UpdatedAt:       device.UpdatedAt,
	}
}

func protocolSummary(protocol *domain.Protocol) dto.ProtocolSummary {
	return dto.ProtocolSummary{
		ID:               protocol.ID,
		Number:           protocol.Number(),
		DeviceID:         protocol.DeviceID,
		ClientID:         protocol.ClientID,
		BUIC:             protocol.BUIC,
		ShortDescription: admin.ShortDescription(protocol.Description),
		Status:           protocol.Status,
		TechnicianID:     protocol.TechnicianID,
		CreatedAt:        protocol.CreatedAt,
		UpdatedAt:        protocol.UpdatedAt,
	}
}

func protocolDetail(detail *service.ProtocolDetail) dto.ProtocolDetailResponse {
	timeline := make([]dto.ProtocolUpdateResponse, 0, len(detail.Timeline))
	for i := range detail.Timeline {
		timeline = append(timeline, protocolUpdateResponse(&detail.Timeline[i]))
	}
	protocol := detail.Protocol
	return dto.ProtocolDetailResponse{
		ID:             protocol.ID,
		Number:         protocol.Number(),
		DeviceID:       protocol.DeviceID,
		ClientID:       protocol.ClientID,
		BUIC:           protocol.BUIC,
		MQTTTopic:      protocol.MQTTTopic,
		ExamplePayload: protocol.ExamplePayload,
		Description:    protocol.Description,
		Status:         protocol.Status,
		TechnicianID:   protocol.TechnicianID,
		CreatedAt:      protocol.CreatedAt,
		UpdatedAt:      protocol.UpdatedAt,
		Timeline:       timeline,
	}
}

func protocolUpdateResponse(update *domain.ProtocolUpdate) dto.ProtocolUpdateResponse {
	return dto.ProtocolUpdateResponse{
		ID:        update.ID,
		Body:      update.Body,
		AuthorID:  update.AuthorID,
		CreatedAt: update.CreatedAt,
	}
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("resource", map[string]any{name: c.Params(name)})
	}
	return id, nil
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

func parseOptionalInt64(val string) *int64 {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseOptionalBool(val string) *bool {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &parsed
}

func optionalString(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}
