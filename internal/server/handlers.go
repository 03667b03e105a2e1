package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucasmnd/storemap/internal/claim"
	"github.com/lucasmnd/storemap/internal/directory"
	"github.com/lucasmnd/storemap/internal/domain"
	"github.com/lucasmnd/storemap/internal/places"
	"github.com/lucasmnd/storemap/internal/rank"
)

// locatorTimeout bounds position resolution for requests that carry no
// coordinates.
const locatorTimeout = 2 * time.Second

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger    *slog.Logger
	directory *directory.Service
	claims    *claim.Coordinator
	metrics   *Metrics
	locator   places.Locator
	fallback  places.Position
}

// NewAPIHandlers constructs an APIHandlers instance. When a request carries
// no coordinates the locator is consulted, falling back to the given default
// position. locator and metrics may be nil.
func NewAPIHandlers(logger *slog.Logger, dir *directory.Service, claims *claim.Coordinator, metrics *Metrics, locator places.Locator, fallback places.Position) *APIHandlers {
	return &APIHandlers{
		logger:    logger,
		directory: dir,
		claims:    claims,
		metrics:   metrics,
		locator:   locator,
		fallback:  fallback,
	}
}

func (h *APIHandlers) handleStores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	lat, hasLat, err := parseCoordinate(query.Get("lat"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat")
		return
	}
	lng, hasLng, err := parseCoordinate(query.Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lng")
		return
	}
	if hasLat != hasLng {
		writeError(w, http.StatusBadRequest, "lat and lng must be provided together")
		return
	}
	if !hasLat {
		pos := places.Resolve(r.Context(), h.locator, locatorTimeout, h.fallback)
		lat, lng = pos.Lat, pos.Lng
	}

	limit := 0
	if v := query.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	result, err := h.directory.Search(r.Context(), lat, lng, limit)
	if err != nil {
		h.logger.Error("directory search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to search stores")
		return
	}
	h.metrics.countSearch()

	resp := listStoresResponse{
		Origin:   originResponse{Lat: lat, Lng: lng},
		Stores:   make([]storeResponse, 0, len(result.Stores)),
		Warnings: make([]warningResponse, 0, len(result.Warnings)),
	}
	for _, s := range result.Stores {
		resp.Stores = append(resp.Stores, toStoreResponse(s))
	}
	for _, warning := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{
			Source:  string(warning.Source),
			Message: warning.Error(),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleClaims(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload claimRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.City = strings.TrimSpace(payload.City)
	payload.UserID = strings.TrimSpace(payload.UserID)
	if payload.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if payload.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	result, err := h.claims.Claim(r.Context(), payload.Name, payload.City, payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.metrics.countClaim("not_found")
			writeError(w, http.StatusNotFound, "no matching store; provide a city to register a new one")
		case errors.Is(err, domain.ErrConflict):
			h.metrics.countClaim("conflict")
			writeError(w, http.StatusConflict, "store already claimed by another user")
		case errors.Is(err, domain.ErrPersistence), errors.Is(err, domain.ErrSourceUnavailable):
			h.metrics.countClaim("error")
			h.logger.Error("claim failed", "error", err, "userId", payload.UserID)
			writeError(w, http.StatusServiceUnavailable, "claim could not be persisted")
		default:
			h.metrics.countClaim("error")
			h.logger.Error("claim failed", "error", err, "userId", payload.UserID)
			writeError(w, http.StatusInternalServerError, "claim failed")
		}
		return
	}

	switch {
	case result.AlreadyOwned:
		h.metrics.countClaim("already_owned")
	case result.Created:
		h.metrics.countClaim("created")
	default:
		h.metrics.countClaim("claimed")
	}

	respondJSON(w, http.StatusOK, claimResponse{
		StoreID:      result.StoreID,
		Created:      result.Created,
		AlreadyOwned: result.AlreadyOwned,
	})
}

func toStoreResponse(s rank.RankedStore) storeResponse {
	sources := make([]string, 0, len(s.Sources))
	for _, src := range s.Sources {
		sources = append(sources, string(src))
	}
	resp := storeResponse{
		StoreID:     s.ID,
		Name:        s.Name,
		Address:     s.Address,
		City:        s.City,
		PostalCode:  s.PostalCode,
		Lat:         s.Latitude,
		Lng:         s.Longitude,
		Phone:       s.Phone,
		Website:     s.Website,
		Description: s.Description,
		OwnerUserID: s.OwnerUserID,
		Sources:     sources,
	}
	if s.DistanceKm >= 0 {
		d := s.DistanceKm
		resp.DistanceKm = &d
	}
	return resp
}

// --- Request & Response DTOs ---

type claimRequest struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	UserID string `json:"userId"`
}

type claimResponse struct {
	StoreID      string `json:"storeId"`
	Created      bool   `json:"created"`
	AlreadyOwned bool   `json:"alreadyOwned"`
}

type originResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type listStoresResponse struct {
	Origin   originResponse    `json:"origin"`
	Stores   []storeResponse   `json:"stores"`
	Warnings []warningResponse `json:"warnings"`
}

type storeResponse struct {
	StoreID     string   `json:"storeId"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	City        string   `json:"city,omitempty"`
	PostalCode  string   `json:"postalCode,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Description string   `json:"description,omitempty"`
	OwnerUserID string   `json:"ownerUserId,omitempty"`
	Sources     []string `json:"sources"`
	DistanceKm  *float64 `json:"distanceKm,omitempty"`
}

type warningResponse struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// --- Helpers ---

// parseCoordinate reports whether the value was explicitly set alongside the
// parsed coordinate.
func parseCoordinate(value string) (float64, bool, error) {
	if value == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
