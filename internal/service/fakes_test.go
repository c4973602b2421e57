package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
)

// In-memory repository fakes. They mirror the store's behavior closely
// enough for service tests: pgx.ErrNoRows on missing rows, pgconn unique
// violations on duplicate keys, cascades on delete.

type fakeClientRepo struct {
	nextID  int64
	clients map[int64]*domain.Client
	devices *fakeDeviceRepo
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: map[int64]*domain.Client{}}
}

func (r *fakeClientRepo) Create(_ context.Context, client *domain.Client) error {
	for _, existing := range r.clients {
		if existing.Email == client.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"}
		}
	}
	r.nextID++
	client.ID = r.nextID
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) Update(_ context.Context, client *domain.Client) error {
	if _, ok := r.clients[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.clients {
		if id != client.ID && existing.Email == client.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "clients_email_key"}
		}
	}
	client.UpdatedAt = time.Now()
	stored := *client
	r.clients[client.ID] = &stored
	return nil
}

func (r *fakeClientRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.clients, id)
	if r.devices != nil {
		r.devices.cascadeClientDelete(id)
	}
	return nil
}

func (r *fakeClientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	client, ok := r.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *client
	return &copied, nil
}

func (r *fakeClientRepo) GetByEmail(_ context.Context, email string) (*domain.Client, error) {
	for _, client := range r.clients {
		if client.Email == email {
			copied := *client
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeClientRepo) List(_ context.Context, _ repository.ClientFilter) ([]domain.Client, error) {
	result := make([]domain.Client, 0, len(r.clients))
	for _, client := range r.clients {
		result = append(result, *client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fakeDeviceRepo struct {
	nextID    int64
	devices   map[int64]*domain.Device
	protocols *fakeProtocolRepo
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: map[int64]*domain.Device{}}
}

func (r *fakeDeviceRepo) Create(_ context.Context, device *domain.Device) error {
	for _, existing := range r.devices {
		if existing.MACAddress == device.MACAddress {
			return &pgconn.PgError{Code: "23505", ConstraintName: "devices_mac_address_key"}
		}
	}
	r.nextID++
	device.ID = r.nextID
	device.CreatedAt = time.Now()
	device.UpdatedAt = device.CreatedAt
	stored := *device
	r.devices[device.ID] = &stored
	return nil
}

func (r *fakeDeviceRepo) Update(_ context.Context, device *domain.Device) error {
	if _, ok := r.devices[device.ID]; !ok {
		return pgx.ErrNoRows
	}
	for id, existing := range r.devices {
		if id != device.ID && existing.MACAddress == device.MACAddress {
			return &pgconn.PgError{Code: "23505", ConstraintName: "devices_mac_address_key"}
		}
	}
	device.UpdatedAt = time.Now()
	stored := *device
	r.devices[device.ID] = &stored
	return nil
}

func (r *fakeDeviceRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.devices[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.devices, id)
	if r.protocols != nil {
		r.protocols.cascadeDeviceDelete(id)
	}
	return nil
}

func (r *fakeDeviceRepo) cascadeClientDelete(clientID int64) {
	for id, device := range r.devices {
		if device.ClientID == clientID {
			delete(r.devices, id)
			if r.protocols != nil {
				r.protocols.cascadeDeviceDelete(id)
			}
		}
	}
}

func (r *fakeDeviceRepo) GetByID(_ context.Context, id int64) (*domain.Device, error) {
	device, ok := r.devices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *device
	return &copied, nil
}

func (r *fakeDeviceRepo) GetByMAC(_ context.Context, mac string) (*domain.Device, error) {
	for _, device := range r.devices {
		if device.MACAddress == mac {
			copied := *device
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDeviceRepo) ListByClient(_ context.Context, clientID int64) ([]domain.Device, error) {
	var result []domain.Device
	for _, device := range r.devices {
		if device.ClientID == clientID {
			result = append(result, *device)
		}
	}
	return result, nil
}

func (r *fakeDeviceRepo) List(_ context.Context, _ repository.DeviceFilter) ([]domain.Device, error) {
	result := make([]domain.Device, 0, len(r.devices))
	for _, device := range r.devices {
		result = append(result, *device)
	}
	return result, nil
}

type fakeProtocolRepo struct {
	nextID        int64
	protocols     map[int64]*domain.Protocol
	updates       *fakeUpdateRepo
	failFirstSave bool
}

func newFakeProtocolRepo(updates *fakeUpdateRepo) *fakeProtocolRepo {
	return &fakeProtocolRepo{protocols: map[int64]*domain.Protocol{}, updates: updates}
}

func (r *fakeProtocolRepo) Create(_ context.Context, protocol *domain.Protocol) error {
	r.nextID++
	protocol.ID = r.nextID
	protocol.CreatedAt = time.Now()
	protocol.UpdatedAt = protocol.CreatedAt
	stored := *protocol
	r.protocols[protocol.ID] = &stored
	return nil
}

func (r *fakeProtocolRepo) CreateWithFirstUpdate(ctx context.Context, protocol *domain.Protocol, update *domain.ProtocolUpdate) error {
	if r.failFirstSave {
		// simulate the second insert failing; the transaction rolls back
		return &pgconn.PgError{Code: "57014"}
	}
	if err := r.Create(ctx, protocol); err != nil {
		return err
	}
	update.ProtocolID = protocol.ID
	return r.updates.Create(ctx, update)
}

func (r *fakeProtocolRepo) Update(_ context.Context, protocol *domain.Protocol) error {
	if _, ok := r.protocols[protocol.ID]; !ok {
		return pgx.ErrNoRows
	}
	protocol.UpdatedAt = time.Now()
	stored := *protocol
	r.protocols[protocol.ID] = &stored
	return nil
}

func (r *fakeProtocolRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.protocols[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.protocols, id)
	if r.updates != nil {
		r.updates.cascadeProtocolDelete(id)
	}
	return nil
}

func (r *fakeProtocolRepo) cascadeDeviceDelete(deviceID int64) {
	for id, protocol := range r.protocols {
		if protocol.DeviceID == deviceID {
			delete(r.protocols, id)
			if r.updates != nil {
				r.updates.cascadeProtocolDelete(id)
			}
		}
	}
}

func (r *fakeProtocolRepo) GetByID(_ context.Context, id int64) (*domain.Protocol, error) {
	protocol, ok := r.protocols[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *protocol
	return &copied, nil
}

func (r *fakeProtocolRepo) List(_ context.Context, filter repository.ProtocolFilter) ([]domain.Protocol, error) {
	result := make([]domain.Protocol, 0, len(r.protocols))
	for _, protocol := range r.protocols {
		if filter.DeviceID != nil && protocol.DeviceID != *filter.DeviceID {
			continue
		}
		result = append(result, *protocol)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

type fakeUpdateRepo struct {
	nextID  int64
	updates map[int64]*domain.ProtocolUpdate
	now     func() time.Time
}

func newFakeUpdateRepo() *fakeUpdateRepo {
	return &fakeUpdateRepo{updates: map[int64]*domain.ProtocolUpdate{}, now: time.Now}
}

func (r *fakeUpdateRepo) Create(_ context.Context, update *domain.ProtocolUpdate) error {
	r.nextID++
	update.ID = r.nextID
	update.CreatedAt = r.now()
	stored := *update
	r.updates[update.ID] = &stored
	return nil
}

func (r *fakeUpdateRepo) ListByProtocol(_ context.Context, protocolID int64) ([]domain.ProtocolUpdate, error) {
	var result []domain.ProtocolUpdate
	for _, update := range r.updates {
		if update.ProtocolID == protocolID {
			result = append(result, *update)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeUpdateRepo) cascadeProtocolDelete(protocolID int64) {
	for id, update := range r.updates {
		if update.ProtocolID == protocolID {
			delete(r.updates, id)
		}
	}
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == t {
			out = append(out, event)
		}
	}
	return out
}
