package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memClientRepo struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]domain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: map[int64]domain.Client{}}
}

func (r *memClientRepo) Create(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	client.ID = r.nextID
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	r.clients[client.ID] = *client
	return nil
}

func (r *memClientRepo) Update(_ context.Context, client *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	client.UpdatedAt = time.Now()
	r.clients[client.ID] = *client
	return nil
}

func (r *memClientRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.clients, id)
	return nil
}

func (r *memClientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &client, nil
}

func (r *memClientRepo) GetByEmail(_ context.Context, email string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, client := range r.clients {
		if client.Email == email {
			found := client
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memClientRepo) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Client
	for _, client := range r.clients {
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(client.Name), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memDeviceRepo struct {
	mu      sync.Mutex
	nextID  int64
	devices map[int64]domain.Device
}

func newMemDeviceRepo() *memDeviceRepo {
	return &memDeviceRepo{devices: map[int64]domain.Device{}}
}

func (r *memDeviceRepo) Create(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	device.ID = r.nextID
	device.CreatedAt = time.Now()
	device.UpdatedAt = device.CreatedAt
	r.devices[device.ID] = *device
	return nil
}

func (r *memDeviceRepo) Update(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.ID]; !ok {
		return pgx.ErrNoRows
	}
	device.UpdatedAt = time.Now()
	r.devices[device.ID] = *device
	return nil
}

func (r *memDeviceRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.devices, id)
	return nil
}

func (r *memDeviceRepo) GetByID(_ context.Context, id int64) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &device, nil
}

func (r *memDeviceRepo) GetByMAC(_ context.Context, mac string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, device := range r.devices {
		if device.MACAddress == mac {
			found := device
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memDeviceRepo) ListByClient(_ context.Context, clientID int64) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Device
	for _, device := range r.devices {
		if device.ClientID == clientID {
			out = append(out, device)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memDeviceRepo) List(_ context.Context, filter repository.DeviceFilter) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Device
	for _, device := range r.devices {
		if filter.ClientID != nil && device.ClientID != *filter.ClientID {
			continue
		}
		if filter.Online != nil && device.Online != *filter.Online {
			continue
		}
		out = append(out, device)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memProtocolRepo struct {
	mu        sync.Mutex
	nextID    int64
	protocols map[int64]domain.Protocol
	updates   *memUpdateRepo
}

func newMemProtocolRepo(updates *memUpdateRepo) *memProtocolRepo {
	return &memProtocolRepo{protocols: map[int64]domain.Protocol{}, updates: updates}
}

func (r *memProtocolRepo) Create(_ context.Context, protocol *domain.Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	protocol.ID = r.nextID
	protocol.CreatedAt = time.Now()
	protocol.UpdatedAt = protocol.CreatedAt
	r.protocols[protocol.ID] = *protocol
	return nil
}

func (r *memProtocolRepo) CreateWithFirstUpdate(ctx context.Context, protocol *domain.Protocol, update *domain.ProtocolUpdate) error {
	if err := r.Create(ctx, protocol); err != nil {
		return err
	}
	update.ProtocolID = protocol.ID
	return r.updates.Create(ctx, update)
}

func (r *memProtocolRepo) Update(_ context.Context, protocol *domain.Protocol) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.protocols[protocol.ID]; !ok {
		return pgx.ErrNoRows
	}
	protocol.UpdatedAt = time.Now()
	r.protocols[protocol.ID] = *protocol
	return nil
}

func (r *memProtocolRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.protocols[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.protocols, id)
	return nil
}

func (r *memProtocolRepo) GetByID(_ context.Context, id int64) (*domain.Protocol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	protocol, ok := r.protocols[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &protocol, nil
}

func (r *memProtocolRepo) List(_ context.Context, filter repository.ProtocolFilter) ([]domain.Protocol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Protocol
	for _, protocol := range r.protocols {
		if filter.DeviceID != nil && protocol.DeviceID != *filter.DeviceID {
			continue
		}
		out = append(out, protocol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type memUpdateRepo struct {
	mu      sync.Mutex
	nextID  int64
	updates []domain.ProtocolUpdate
}

func newMemUpdateRepo() *memUpdateRepo {
	return &memUpdateRepo{}
}

func (r *memUpdateRepo) Create(_ context.Context, update *domain.ProtocolUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	update.ID = r.nextID
	update.CreatedAt = time.Now()
	r.updates = append(r.updates, *update)
	return nil
}

func (r *memUpdateRepo) ListByProtocol(_ context.Context, protocolID int64) ([]domain.ProtocolUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProtocolUpdate
	for _, update := range r.updates {
		if update.ProtocolID == protocolID {
			out = append(out, update)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type testEnv struct {
	app     *fiber.App
	clients *memClientRepo
	devices *memDeviceRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Name: "support-desk", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
		Admin: config.AdminConfig{
			SiteTitle:       "Support Desk",
			SiteHeader:      "Support Desk Administration",
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}

	userRepo := newMemUserRepo()
	clientRepo := newMemClientRepo()
	deviceRepo := newMemDeviceRepo()
	updateRepo := newMemUpdateRepo()
	protocolRepo := newMemProtocolRepo(updateRepo)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, userRepo)
	clientService := service.NewClientService(clientRepo)
	deviceService := service.NewDeviceService(deviceRepo, clientRepo)
	protocolService := service.NewProtocolService(service.ProtocolDependencies{
		ProtocolRepo: protocolRepo,
		UpdateRepo:   updateRepo,
		DeviceRepo:   deviceRepo,
		ClientRepo:   clientRepo,
		Dispatcher:   dispatcher,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second, config.RateLimitConfig{})

	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Protocols:      handlers.NewProtocolsHandler(protocolService, deviceService, clientService),
		AdminClients:   handlers.NewAdminClientsHandler(clientService, cfg.Admin),
		AdminDevices:   handlers.NewAdminDevicesHandler(deviceService, cfg.Admin),
		AdminProtocols: handlers.NewAdminProtocolsHandler(protocolService, cfg.Admin),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
	})

	return &testEnv{app: app, clients: clientRepo, devices: deviceRepo}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) registerTechnician(t *testing.T, name, email string) string {
	t.Helper()
	resp := e.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	return data["auth"].(map[string]any)["token"].(string)
}

func (e *testEnv) seedClientAndDevice(t *testing.T) (int64, int64) {
	t.Helper()
	client := domain.Client{Name: "Acme Farms", Email: "ops@acme.example", Phone: "555-0100"}
	require.NoError(t, e.clients.Create(context.Background(), &client))
	device := domain.Device{ClientID: client.ID, Name: "Gate Sensor", Type: "sensor", MACAddress: "AA:BB:CC:DD:EE:01", Online: true}
	require.NoError(t, e.devices.Create(context.Background(), &device))
	return client.ID, device.ID
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	resp := env.request(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "alive", body["status"])
}

func TestProtocolRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/protocols/new", "/protocols/1", "/admin/clients/"} {
		resp := env.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		body := decodeBody(t, resp)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "UNAUTHORIZED", errObj["code"])
	}
}

func TestCreateProtocolWorkflow(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTechnician(t, "tech1", "tech1@desk.example")
	_, deviceID := env.seedClientAndDevice(t)

	resp := env.request(t, http.MethodPost, "/protocols/", token, map[string]any{
		"device_id":      deviceID,
		"description":    "gate sensor intermittently offline",
		"initial_update": "first site visit scheduled",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/protocols/1", resp.Header.Get("Location"))

	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "000001", data["number"])
	assert.Equal(t, "OPEN", data["status"])

	// detail view carries the single timeline entry
	resp = env.request(t, http.MethodGet, "/protocols/1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decodeBody(t, resp)["data"].(map[string]any)
	timeline := detail["timeline"].([]any)
	require.Len(t, timeline, 1)
	assert.Equal(t, "first site visit scheduled", timeline[0].(map[string]any)["body"])
}

func TestCreateProtocolValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTechnician(t, "tech1", "tech1@desk.example")
	_, deviceID := env.seedClientAndDevice(t)

	resp := env.request(t, http.MethodPost, "/protocols/", token, map[string]any{
		"device_id": deviceID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestProtocolDetailNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTechnician(t, "tech1", "tech1@desk.example")

	resp := env.request(t, http.MethodGet, "/protocols/999", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminTimelineAppend(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTechnician(t, "tech1", "tech1@desk.example")
	_, deviceID := env.seedClientAndDevice(t)

	resp := env.request(t, http.MethodPost, "/admin/protocols/", token, map[string]any{
		"device_id":   deviceID,
		"description": "relay firmware mismatch",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for i := 1; i <= 2; i++ {
		resp = env.request(t, http.MethodPost, "/admin/protocols/1/updates", token, map[string]string{
			"body": fmt.Sprintf("follow-up %d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = env.request(t, http.MethodGet, "/admin/protocols/1/updates", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody(t, resp)["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "follow-up 1", items[0].(map[string]any)["body"])
	assert.Equal(t, "follow-up 2", items[1].(map[string]any)["body"])
}

func TestAdminClientCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTechnician(t, "tech1", "tech1@desk.example")

	resp := env.request(t, http.MethodPost, "/admin/clients/", token, map[string]string{
		"name": "Borealis Labs", "email": "it@borealis.example",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/admin/clients/?q=borealis", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody(t, resp)["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Borealis Labs", items[0].(map[string]any)["name"])

	resp = env.request(t, http.MethodDelete, "/admin/clients/1", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerTechnician(t, "tech1", "tech1@desk.example")

	resp := env.request(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "tech1@desk.example", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
