package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// ProtocolService coordinates the ticket workflows: creation with the
// first timeline entry, detail retrieval, console edits and the
// append-only timeline. All mutation paths share the same validation and
// technician auto-assignment rules.
type ProtocolService struct {
	protocols repository.ProtocolRepository
	updates   repository.ProtocolUpdateRepository
	devices   repository.DeviceRepository
	clients   repository.ClientRepository
	cache     *persistence.Redis
	cacheTTL  time.Duration

	dispatcher events.Dispatcher
}

// ProtocolDependencies bundles collaborators for the protocol service.
type ProtocolDependencies struct {
	ProtocolRepo repository.ProtocolRepository
	UpdateRepo   repository.ProtocolUpdateRepository
	DeviceRepo   repository.DeviceRepository
	ClientRepo   repository.ClientRepository
	Cache        *persistence.Redis
	CacheTTL     time.Duration
	Dispatcher   events.Dispatcher
}

// ProtocolCreateInput describes the creation form payload. InitialUpdate
// is the text of the single first timeline entry; a blank string is a
// valid (empty) entry, nil means the console created the protocol without
// an inline update.
type ProtocolCreateInput struct {
	DeviceID       int64
	ClientID       *int64
	BUIC           *string
	MQTTTopic      *string
	ExamplePayload *string
	Description    string
	Status         domain.ProtocolStatus
	InitialUpdate  *string
}

// ProtocolEditInput describes a console edit. The technician reference is
// deliberately absent: it is never operator-writable.
type ProtocolEditInput struct {
	DeviceID       int64
	ClientID       *int64
	BUIC           *string
	MQTTTopic      *string
	ExamplePayload *string
	Description    string
	Status         domain.ProtocolStatus
}

// ProtocolDetail is a protocol with its eagerly loaded, ascending timeline.
type ProtocolDetail struct {
	Protocol domain.Protocol
	Timeline []domain.ProtocolUpdate
}

// NewProtocolService constructs the service.
func NewProtocolService(deps ProtocolDependencies) *ProtocolService {
	return &ProtocolService{
		protocols:  deps.ProtocolRepo,
		updates:    deps.UpdateRepo,
		devices:    deps.DeviceRepo,
		clients:    deps.ClientRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		dispatcher: deps.Dispatcher,
	}
}

// CreateProtocol validates the input, assigns the submitting technician and
// persists the protocol together with its first timeline entry in one
// transaction. On validation failure nothing is written.
func (s *ProtocolService) CreateProtocol(ctx context.Context, currentUserID string, input ProtocolCreateInput) (*domain.Protocol, error) {
	protocol := &domain.Protocol{
		DeviceID:       input.DeviceID,
		ClientID:       input.ClientID,
		BUIC:           normalizeOptional(input.BUIC),
		MQTTTopic:      normalizeOptional(input.MQTTTopic),
		ExamplePayload: normalizeOptional(input.ExamplePayload),
		Description:    strings.TrimSpace(input.Description),
		Status:         input.Status,
	}
	if protocol.Status == "" {
		protocol.Status = domain.ProtocolStatusOpen
	}

	if err := s.validate(ctx, protocol); err != nil {
		return nil, err
	}
	s.assignTechnician(protocol, currentUserID)

	if input.InitialUpdate == nil {
		if err := s.protocols.Create(ctx, protocol); err != nil {
			return nil, err
		}
	} else {
		update := &domain.ProtocolUpdate{
			Body:     *input.InitialUpdate,
			AuthorID: &currentUserID,
		}
		if err := s.protocols.CreateWithFirstUpdate(ctx, protocol, update); err != nil {
			return nil, err
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventProtocolCreated,
		ProtocolID: protocol.ID,
		ActorID:    &currentUserID,
		Payload: events.ProtocolCreatedPayload{
			DeviceID:    protocol.DeviceID,
			ClientID:    protocol.ClientID,
			Status:      protocol.Status,
			Description: protocol.Description,
		},
	})
	return protocol, nil
}

// GetDetail returns the protocol with its ordered timeline, serving from
// the Redis cache when possible.
func (s *ProtocolService) GetDetail(ctx context.Context, id int64) (*ProtocolDetail, error) {
	if cached, err := s.cache.GetBytes(ctx, detailCacheKey(id)); err == nil && cached != nil {
		var detail ProtocolDetail
		if err := json.Unmarshal(cached, &detail); err == nil {
			return &detail, nil
		}
	}

	protocol, err := s.protocols.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("protocol", map[string]any{"id": id})
		}
		return nil, err
	}
	timeline, err := s.updates.ListByProtocol(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ProtocolDetail{Protocol: *protocol, Timeline: timeline}
	if payload, err := json.Marshal(detail); err == nil {
		_ = s.cache.SetBytes(ctx, detailCacheKey(id), payload, s.cacheTTL)
	}
	return detail, nil
}

// AppendUpdate adds a timeline entry to an existing protocol. Entries are
// immutable once written.
func (s *ProtocolService) AppendUpdate(ctx context.Context, currentUserID string, protocolID int64, body string) (*domain.ProtocolUpdate, error) {
	if _, err := s.protocols.GetByID(ctx, protocolID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("protocol", map[string]any{"id": protocolID})
		}
		return nil, err
	}

	update := &domain.ProtocolUpdate{
		ProtocolID: protocolID,
		Body:       body,
		AuthorID:   &currentUserID,
	}
	if err := s.updates.Create(ctx, update); err != nil {
		return nil, err
	}
	s.invalidateDetail(ctx, protocolID)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventProtocolUpdateAdded,
		ProtocolID: protocolID,
		ActorID:    &currentUserID,
		Payload: events.ProtocolUpdateAddedPayload{
			UpdateID:    update.ID,
			AuthorID:    update.AuthorID,
			BodyPreview: stringPreview(update.Body, 120),
		},
	})
	return update, nil
}

// UpdateProtocol applies a console edit. The stored technician reference is
// preserved when already set; when it is still empty (a row predating
// auto-assignment) the editing technician takes it over. Re-saving never
// reassigns authorship.
func (s *ProtocolService) UpdateProtocol(ctx context.Context, currentUserID string, id int64, input ProtocolEditInput) (*domain.Protocol, error) {
	existing, err := s.protocols.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("protocol", map[string]any{"id": id})
		}
		return nil, err
	}

	oldStatus := existing.Status
	existing.DeviceID = input.DeviceID
	existing.ClientID = input.ClientID
	existing.BUIC = normalizeOptional(input.BUIC)
	existing.MQTTTopic = normalizeOptional(input.MQTTTopic)
	existing.ExamplePayload = normalizeOptional(input.ExamplePayload)
	existing.Description = strings.TrimSpace(input.Description)
	if input.Status != "" {
		existing.Status = input.Status
	}

	if err := s.validate(ctx, existing); err != nil {
		return nil, err
	}
	s.assignTechnician(existing, currentUserID)

	if err := s.protocols.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.invalidateDetail(ctx, id)

	if oldStatus != existing.Status {
		s.publishEvent(ctx, events.Event{
			Type:       events.EventProtocolStatusChanged,
			ProtocolID: existing.ID,
			ActorID:    &currentUserID,
			Payload: events.ProtocolStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: existing.Status,
			},
		})
	}
	return existing, nil
}

// DeleteProtocol removes a protocol; its timeline goes with it.
func (s *ProtocolService) DeleteProtocol(ctx context.Context, currentUserID string, id int64) error {
	if err := s.protocols.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("protocol", map[string]any{"id": id})
		}
		return err
	}
	s.invalidateDetail(ctx, id)
	s.publishEvent(ctx, events.Event{
		Type:       events.EventProtocolDeleted,
		ProtocolID: id,
		ActorID:    &currentUserID,
	})
	return nil
}

// ListProtocols returns protocols for the console listing.
func (s *ProtocolService) ListProtocols(ctx context.Context, filter repository.ProtocolFilter) ([]domain.Protocol, error) {
	return s.protocols.List(ctx, filter)
}

// ListTimeline returns a protocol's timeline oldest first.
func (s *ProtocolService) ListTimeline(ctx context.Context, protocolID int64) ([]domain.ProtocolUpdate, error) {
	if _, err := s.protocols.GetByID(ctx, protocolID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("protocol", map[string]any{"id": protocolID})
		}
		return nil, err
	}
	return s.updates.ListByProtocol(ctx, protocolID)
}

// validate enforces the shared field constraints: a non-empty description,
// a resolvable device and, when given, a resolvable client.
func (s *ProtocolService) validate(ctx context.Context, protocol *domain.Protocol) error {
	details := map[string]any{}

	if protocol.Description == "" {
		details["description"] = "required"
	}
	if !protocol.Status.Valid() {
		details["status"] = "must be one of OPEN, IN_PROGRESS, COMPLETED"
	}

	if protocol.DeviceID <= 0 {
		details["device_id"] = "required"
	} else if _, err := s.devices.GetByID(ctx, protocol.DeviceID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			details["device_id"] = "unknown device"
		} else {
			return err
		}
	}

	if protocol.ClientID != nil {
		if _, err := s.clients.GetByID(ctx, *protocol.ClientID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				details["client_id"] = "unknown client"
			} else {
				return err
			}
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("protocol validation failed", details)
	}
	return nil
}

// assignTechnician sets the responsible technician if and only if it is
// not already set. The assignment is idempotent across repeated saves.
func (s *ProtocolService) assignTechnician(protocol *domain.Protocol, currentUserID string) {
	if protocol.TechnicianID != nil {
		return
	}
	protocol.TechnicianID = &currentUserID
}

func (s *ProtocolService) invalidateDetail(ctx context.Context, id int64) {
	_ = s.cache.Delete(ctx, detailCacheKey(id))
}

func (s *ProtocolService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func detailCacheKey(id int64) string {
	return fmt.Sprintf("protocol:detail:%d", id)
}

func normalizeOptional(val *string) *string {
	if val == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
