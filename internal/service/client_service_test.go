package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func TestCreateClient(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)

	client, err := svc.CreateClient(context.Background(), ClientInput{
		Name:  "Acme",
		Email: "a@acme.com",
		Phone: "555-0100",
	})
	require.NoError(t, err)
	assert.NotZero(t, client.ID)
	assert.Equal(t, "Acme", client.Name)
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	repo := newFakeClientRepo()
	svc := NewClientService(repo)
	ctx := context.Background()

	_, err := svc.CreateClient(ctx, ClientInput{Name: "Acme", Email: "a@acme.com", Phone: "1"})
	require.NoError(t, err)

	_, err = svc.CreateClient(ctx, ClientInput{Name: "Other", Email: "a@acme.com", Phone: "2"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "email")
}

func TestCreateClientValidation(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	_, err := svc.CreateClient(context.Background(), ClientInput{Name: "", Email: "not-an-email"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "required", de.Details["name"])
	assert.Equal(t, "invalid email address", de.Details["email"])
}

func TestDeleteClientNotFound(t *testing.T) {
	svc := NewClientService(newFakeClientRepo())

	err := svc.DeleteClient(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
