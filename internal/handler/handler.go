package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/marlonjr14/pokemon-api/internal/middleware"
	"github.com/marlonjr14/pokemon-api/internal/models"
	"github.com/marlonjr14/pokemon-api/internal/repository"
	"github.com/marlonjr14/pokemon-api/internal/response"
	"github.com/marlonjr14/pokemon-api/internal/service"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

const (
	msgPokemonNotFound  = "Pokémon not found"
	msgEndpointNotFound = "Endpoint not found"
	msgStoreUnavailable = "Database connection failed"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    *service.Service
	health Pinger
	log    *logrus.Logger
}

func NewHandler(svc *service.Service, health Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, health: health, log: log}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Missing username or password")
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		response.Error(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrConflict):
		response.Error(w, r, http.StatusBadRequest, "Username already exists")
		return
	default:
		h.storeError(w, r, err, http.StatusBadRequest)
		return
	}

	response.Write(w, r, http.StatusCreated, map[string]any{
		"message":  "User registered successfully",
		"username": user.Username,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Missing username or password")
		return
	}

	token, user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrValidation):
		response.Error(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	default:
		h.storeError(w, r, err, http.StatusInternalServerError)
		return
	}

	response.Write(w, r, http.StatusOK, map[string]any{
		"message":  "Login successful",
		"token":    token,
		"username": user.Username,
	})
}

// ListPokemon returns every record, optionally narrowed by ?name=
func (h *Handler) ListPokemon(w http.ResponseWriter, r *http.Request) {
	pokemons, err := h.svc.ListPokemon(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.storeError(w, r, err, http.StatusInternalServerError)
		return
	}

	response.Write(w, r, http.StatusOK, map[string]any{
		"pokemons": pokemons,
		"count":    len(pokemons),
	})
}

// SearchPokemon is ListPokemon with the applied criteria echoed back
func (h *Handler) SearchPokemon(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	pokemons, err := h.svc.ListPokemon(r.Context(), name)
	if err != nil {
		h.storeError(w, r, err, http.StatusInternalServerError)
		return
	}

	var criteria any
	if name != "" {
		criteria = name
	}
	response.Write(w, r, http.StatusOK, map[string]any{
		"pokemons": pokemons,
		"count":    len(pokemons),
		"search_criteria": map[string]any{
			"name": criteria,
		},
	})
}

// GetPokemon returns a single record
func (h *Handler) GetPokemon(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pokemonID(w, r)
	if !ok {
		return
	}

	pokemon, err := h.svc.GetPokemon(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err, http.StatusInternalServerError)
		return
	}

	response.Write(w, r, http.StatusOK, map[string]any{"pokemon": pokemon})
}

// CreatePokemon stores a new record; requires authentication
func (h *Handler) CreatePokemon(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.UsernameFromContext(r.Context())

	var fields models.PokemonFields
	if err := decodeJSON(r, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			response.Error(w, r, http.StatusBadRequest, "Invalid field value: "+err.Error())
			return
		}
		response.Error(w, r, http.StatusBadRequest, "Missing required fields: name, base_experience, height, weight")
		return
	}

	pokemon, err := h.svc.CreatePokemon(r.Context(), fields, username)
	if errors.Is(err, service.ErrValidation) {
		response.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.storeError(w, r, err, http.StatusBadRequest)
		return
	}

	response.Write(w, r, http.StatusCreated, map[string]any{
		"message":    "Pokémon created successfully",
		"pokemon":    pokemon,
		"created_by": username,
	})
}

// UpdatePokemon changes the supplied fields of a record; requires authentication
func (h *Handler) UpdatePokemon(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.UsernameFromContext(r.Context())
	id, ok := h.pokemonID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	body, err := readBody(r)
	if err == nil {
		err = json.Unmarshal(body, &raw)
	}
	if err != nil || len(raw) == 0 {
		response.Error(w, r, http.StatusBadRequest, "No data provided")
		return
	}
	var fields models.PokemonFields
	if err := json.Unmarshal(body, &fields); err != nil {
		response.Error(w, r, http.StatusBadRequest, "Invalid field value: "+err.Error())
		return
	}

	err = h.svc.UpdatePokemon(r.Context(), id, fields, username)
	if errors.Is(err, service.ErrValidation) {
		response.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.storeError(w, r, err, http.StatusBadRequest)
		return
	}

	response.Write(w, r, http.StatusOK, map[string]any{
		"message":    "Pokémon updated successfully",
		"pokemon_id": id,
		"updated_by": username,
	})
}

// DeletePokemon removes a record; requires authentication
func (h *Handler) DeletePokemon(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.UsernameFromContext(r.Context())
	id, ok := h.pokemonID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeletePokemon(r.Context(), id, username); err != nil {
		h.storeError(w, r, err, http.StatusInternalServerError)
		return
	}

	response.Write(w, r, http.StatusOK, map[string]any{
		"message":    "Pokémon deleted successfully",
		"pokemon_id": id,
		"deleted_by": username,
	})
}

type endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Auth        bool   `json:"auth"`
}

var endpoints = []endpoint{
	{http.MethodPost, "/api/register", "Register new user", false},
	{http.MethodPost, "/api/login", "Login and get JWT token", false},
	{http.MethodGet, "/api/pokemon", "Get all Pokémon (supports search with ?name=)", false},
	{http.MethodGet, "/api/pokemon/search", "Search Pokémon by name (?name=)", false},
	{http.MethodGet, "/api/pokemon/{id}", "Get Pokémon by ID", false},
	{http.MethodPost, "/api/pokemon", "Create new Pokémon", true},
	{http.MethodPut, "/api/pokemon/{id}", "Update Pokémon", true},
	{http.MethodDelete, "/api/pokemon/{id}", "Delete Pokémon", true},
}

// Index describes the API
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	response.Write(w, r, http.StatusOK, map[string]any{
		"message":   "Pokémon REST API with JWT Authentication",
		"version":   "1.0",
		"endpoints": endpoints,
	})
}

// Health reports whether the store answers a ping
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		h.log.WithError(err).Warn("health check failed")
		response.Write(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	response.Write(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

// NotFound is the fallback for unknown endpoints
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusNotFound, msgEndpointNotFound)
}

// MethodNotAllowed is the fallback for known paths with an unsupported method
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// storeError writes the envelope for a failed store call. status applies to
// errors other than not-found and unavailable, whose codes are fixed.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, msgPokemonNotFound)
	case errors.Is(err, repository.ErrStoreUnavailable):
		h.log.WithError(err).Error("store unavailable")
		response.Error(w, r, http.StatusInternalServerError, msgStoreUnavailable)
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("store operation failed")
		response.Error(w, r, status, err.Error())
	}
}

func (h *Handler) pokemonID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusNotFound, msgEndpointNotFound)
		return 0, false
	}
	return id, true
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func decodeJSON(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, dst)
}
