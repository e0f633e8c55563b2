package clients

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryClientRepo struct {
	clients map[uuid.UUID]*Client
	seq     int
}

func newMemoryClientRepo() *memoryClientRepo {
	return &memoryClientRepo{clients: make(map[uuid.UUID]*Client)}
}

func (r *memoryClientRepo) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *memoryClientRepo) GetByCode(ctx context.Context, code string) (*Client, error) {
	for _, c := range r.clients {
		if c.Code == code {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryClientRepo) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var out []Client
	for _, c := range r.clients {
		if req.IsActive != nil && c.IsActive != *req.IsActive {
			continue
		}
		if req.Search != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*req.Search)) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (r *memoryClientRepo) Create(ctx context.Context, client Client) error {
	stored := client
	r.clients[client.ID] = &stored
	return nil
}

func (r *memoryClientRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	c, ok := r.clients[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		phone := v.(string)
		c.Phone = &phone
	}
	if v, ok := updates["is_active"]; ok {
		c.IsActive = v.(bool)
	}
	return nil
}

func (r *memoryClientRepo) GenerateCode(ctx context.Context) (string, error) {
	r.seq++
	return fmt.Sprintf("CLI-%05d", r.seq), nil
}

func (r *memoryClientRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.clients[id]
	return ok, nil
}

func TestCreateClientGeneratesCode(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo, nil)

	client, err := svc.Create(context.Background(), CreateClientRequest{Name: "Budi Santoso"}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, "CLI-00001", client.Code)
	require.True(t, client.IsActive)
}

func TestCreateClientRejectsDuplicateCode(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreateClientRequest{Code: "CLI-WALKIN", Name: "First"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateClientRequest{Code: "CLI-WALKIN", Name: "Second"}, uuid.New())
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdateClientPatchesOnlyProvidedFields(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateClientRequest{Name: "Budi Santoso"}, uuid.New())
	require.NoError(t, err)

	phone := "+62-812-555-0134"
	updated, err := svc.Update(context.Background(), created.ID, UpdateClientRequest{Phone: &phone}, uuid.New())
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", updated.Name)
	require.NotNil(t, updated.Phone)
	require.Equal(t, phone, *updated.Phone)
}

func TestDeactivateClientKeepsRecord(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateClientRequest{Name: "Budi Santoso"}, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID, uuid.New()))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestListClientsFiltersBySearch(t *testing.T) {
	repo := newMemoryClientRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreateClientRequest{Name: "Budi Santoso"}, uuid.New())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateClientRequest{Name: "Citra Motor"}, uuid.New())
	require.NoError(t, err)

	search := "citra"
	list, total, err := svc.List(context.Background(), ListClientsRequest{Search: &search})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "Citra Motor", list[0].Name)
}
