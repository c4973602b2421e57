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

// ClientService manages client records for the console.
type ClientService struct {
	clients repository.ClientRepository
}

// ClientInput holds the editable client fields.
type ClientInput struct {
	Name  string
	Email string
	Phone string
}

// NewClientService constructs the service.
func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

// CreateClient validates and persists a new client.
func (s *ClientService) CreateClient(ctx context.Context, input ClientInput) (*domain.Client, error) {
	client := &domain.Client{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(input.Email),
		Phone: strings.TrimSpace(input.Phone),
	}
	if err := validateClient(client); err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, mapClientWriteError(err)
	}
	return client, nil
}

// UpdateClient applies a console edit to an existing client.
func (s *ClientService) UpdateClient(ctx context.Context, id int64, input ClientInput) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
		}
		return nil, err
	}
	client.Name = strings.TrimSpace(input.Name)
	client.Email = strings.TrimSpace(input.Email)
	client.Phone = strings.TrimSpace(input.Phone)
	if err := validateClient(client); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, mapClientWriteError(err)
	}
	return client, nil
}

// GetClient fetches one client.
func (s *ClientService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
		}
		return nil, err
	}
	return client, nil
}

// DeleteClient removes a client. The store cascades the delete to the
// client's devices and, through them, their protocols and timelines.
func (s *ClientService) DeleteClient(ctx context.Context, id int64) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("client", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// ListClients returns clients ordered by name.
func (s *ClientService) ListClients(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	return s.clients.List(ctx, filter)
}

func validateClient(client *domain.Client) error {
	details := map[string]any{}
	if client.Name == "" {
		details["name"] = "required"
	}
	if client.Email == "" {
		details["email"] = "required"
	} else if !strings.Contains(client.Email, "@") {
		details["email"] = "invalid email address"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("client validation failed", details)
	}
	return nil
}

func mapClientWriteError(err error) error {
	if constraint, ok := apperrors.UniqueViolation(err); ok && constraint == "clients_email_key" {
		return apperrors.NewValidationError("client validation failed", map[string]any{
			"email": "a client with this email already exists",
		})
	}
	return err
}
