package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/marlonjr14/pokemon-api/internal/models"
	"github.com/marlonjr14/pokemon-api/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError carries a client-facing message and matches ErrValidation
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

// UserStore persists credentials
type UserStore interface {
	EnsureUsersTable(ctx context.Context) error
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// PokemonStore persists catalog records
type PokemonStore interface {
	ListPokemon(ctx context.Context, nameFilter string) ([]models.Pokemon, error)
	GetPokemon(ctx context.Context, id int64) (*models.Pokemon, error)
	CreatePokemon(ctx context.Context, p *models.Pokemon) error
	UpdatePokemon(ctx context.Context, id int64, patch models.PokemonFields) error
	DeletePokemon(ctx context.Context, id int64) error
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// Service handles business logic
type Service struct {
	users      UserStore
	pokemon    PokemonStore
	tokens     TokenIssuer
	log        *logrus.Logger
	bcryptCost int

	compareHash func(hash, password []byte) error
	dummyOnce   sync.Once
	dummyHash   []byte
}

// NewService initializes a new service
func NewService(users UserStore, pokemon PokemonStore, tokens TokenIssuer, log *logrus.Logger) *Service {
	return &Service{
		users:      users,
		pokemon:    pokemon,
		tokens:     tokens,
		log:        log,
		bcryptCost: bcrypt.DefaultCost,

		compareHash: bcrypt.CompareHashAndPassword,
	}
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, invalid("Missing username or password")
	}

	if err := s.users.EnsureUsersTable(ctx); err != nil {
		return nil, err
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, invalid("Password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Username)
	return user, nil
}

// Login authenticates a user and returns a signed access token. Unknown
// usernames and wrong passwords produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, invalid("Missing username or password")
	}

	user, err := s.users.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		// Same bcrypt work as a wrong password, so timing does not reveal
		// which usernames exist.
		_ = s.compareHash(s.unknownUserHash(), []byte(password))
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	// Verify password
	if err := s.compareHash([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", nil, err
	}

	s.log.Infof("User logged in: %s", user.Username)
	return token, user, nil
}

// unknownUserHash returns a hash at the service's cost for logins against
// usernames that do not exist
func (s *Service) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), s.bcryptCost)
		if err != nil {
			s.log.WithError(err).Error("failed to prepare placeholder hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// ListPokemon returns records whose name contains nameFilter, or all records
// when the filter is blank
func (s *Service) ListPokemon(ctx context.Context, nameFilter string) ([]models.Pokemon, error) {
	return s.pokemon.ListPokemon(ctx, strings.TrimSpace(nameFilter))
}

// GetPokemon returns a single record
func (s *Service) GetPokemon(ctx context.Context, id int64) (*models.Pokemon, error) {
	return s.pokemon.GetPokemon(ctx, id)
}

// CreatePokemon stores a new record on behalf of createdBy
func (s *Service) CreatePokemon(ctx context.Context, fields models.PokemonFields, createdBy string) (*models.Pokemon, error) {
	if !fields.Complete() || fields.BlankName() {
		return nil, invalid("Missing required fields: name, base_experience, height, weight")
	}

	p := fields.Pokemon()
	if err := s.pokemon.CreatePokemon(ctx, &p); err != nil {
		return nil, err
	}

	s.log.Infof("Pokemon %d (%s) created by %s", p.ID, p.Name, createdBy)
	return &p, nil
}

// UpdatePokemon changes only the supplied fields of record id
func (s *Service) UpdatePokemon(ctx context.Context, id int64, fields models.PokemonFields, updatedBy string) error {
	if fields.Empty() {
		return invalid("No valid fields to update")
	}
	if fields.BlankName() {
		return invalid("Name must not be empty")
	}

	if err := s.pokemon.UpdatePokemon(ctx, id, fields); err != nil {
		return err
	}

	s.log.Infof("Pokemon %d updated by %s", id, updatedBy)
	return nil
}

// DeletePokemon removes record id
func (s *Service) DeletePokemon(ctx context.Context, id int64, deletedBy string) error {
	if err := s.pokemon.DeletePokemon(ctx, id); err != nil {
		return err
	}

	s.log.Infof("Pokemon %d deleted by %s", id, deletedBy)
	return nil
}
