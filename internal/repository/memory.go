package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marlonjr14/pokemon-api/internal/models"
)

// MemoryRepository keeps users and catalog records in process memory. It
// mirrors the Postgres repository's contract and is meant for local runs and
// tests.
type MemoryRepository struct {
	mu         sync.Mutex
	users      map[string]models.User
	pokemon    map[int64]models.Pokemon
	nextUserID int64
	nextID     int64
}

// NewMemoryRepository returns an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:   make(map[string]models.User),
		pokemon: make(map[int64]models.Pokemon),
	}
}

// Ping always succeeds
func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) EnsureUsersTable(ctx context.Context) error {
	return nil
}

func (m *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; exists {
		return ErrDuplicate
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now().UTC()
	m.users[user.Username] = *user
	return nil
}

func (m *MemoryRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryRepository) ListPokemon(ctx context.Context, nameFilter string) ([]models.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := strings.TrimSpace(nameFilter)
	out := make([]models.Pokemon, 0, len(m.pokemon))
	for _, p := range m.pokemon {
		if filter == "" || strings.Contains(p.Name, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) GetPokemon(ctx context.Context, id int64) (*models.Pokemon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pokemon[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// CreatePokemon assigns ids from a counter that never goes back, so deleted
// ids are not reused.
func (m *MemoryRepository) CreatePokemon(ctx context.Context, p *models.Pokemon) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p.ID = m.nextID
	m.pokemon[p.ID] = *p
	return nil
}

func (m *MemoryRepository) UpdatePokemon(ctx context.Context, id int64, patch models.PokemonFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pokemon[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.BaseExperience != nil {
		p.BaseExperience = *patch.BaseExperience
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Weight != nil {
		p.Weight = *patch.Weight
	}
	m.pokemon[id] = p
	return nil
}

func (m *MemoryRepository) DeletePokemon(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pokemon[id]; !ok {
		return ErrNotFound
	}
	delete(m.pokemon, id)
	return nil
}
