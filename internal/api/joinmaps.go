package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// JoinMapView is a join map and where it came from. Map is in the override
// format, so a default can be edited and PUT back as an override.
type JoinMapView struct {
	Key       string          `json:"key"`
	Origin    joinmap.Origin  `json:"origin"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	Map       json.RawMessage `json:"map"`
}

// handleListJoinMaps returns the stored overrides and the keys that have a
// compiled-in default.
func (s *Server) handleListJoinMaps(w http.ResponseWriter, r *http.Request) {
	overrides := []joinmap.Record{}
	if s.overrides != nil {
		records, err := s.overrides.List(r.Context())
		if err != nil {
			s.logger.Error("listing join map overrides", "error", err)
			writeInternalError(w, "failed to list join map overrides")
			return
		}
		overrides = append(overrides, records...)
	}

	defaults := make([]string, 0, len(s.devices))
	for _, d := range s.devices {
		defaults = append(defaults, d.Key())
	}
	sort.Strings(defaults)

	writeJSON(w, http.StatusOK, map[string]any{
		"overrides": overrides,
		"defaults":  defaults,
	})
}

// handleGetJoinMap returns the stored override for key, or the default of
// the device that key selects.
func (s *Server) handleGetJoinMap(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if s.overrides != nil {
		rec, err := s.overrides.Get(r.Context(), key)
		switch {
		case err == nil:
			updated := rec.UpdatedAt
			writeJSON(w, http.StatusOK, JoinMapView{
				Key:       rec.Key,
				Origin:    joinmap.OriginOverride,
				UpdatedAt: &updated,
				Map:       json.RawMessage(rec.Body),
			})
			return
		case !errors.Is(err, joinmap.ErrOverrideNotFound):
			s.logger.Error("reading join map override", "key", key, "error", err)
			writeInternalError(w, "failed to read join map override")
			return
		}
	}

	d, ok := s.defaultFor(key)
	if !ok {
		writeNotFound(w, "join map not found")
		return
	}
	body, err := joinmap.Marshal(d.JoinMap())
	if err != nil {
		s.logger.Error("encoding default join map", "device", d.Key(), "error", err)
		writeInternalError(w, "failed to encode join map")
		return
	}
	writeJSON(w, http.StatusOK, JoinMapView{
		Key:    strings.ToLower(key),
		Origin: joinmap.OriginDefault,
		Map:    json.RawMessage(body),
	})
}

// handlePutJoinMap stores an override. It applies the next time the device
// is linked.
func (s *Server) handlePutJoinMap(w http.ResponseWriter, r *http.Request) {
	if s.overrides == nil {
		writeUnavailable(w, "join map overrides are not configured")
		return
	}
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}

	if err := s.overrides.Put(r.Context(), key, string(body)); err != nil {
		if errors.Is(err, joinmap.ErrOverrideInvalid) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("storing join map override", "key", key, "error", err)
		writeInternalError(w, "failed to store join map override")
		return
	}

	s.logger.Info("join map override stored", "key", key)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":    strings.ToLower(key),
		"origin": joinmap.OriginOverride,
	})
}

// handleDeleteJoinMap removes an override, restoring the default at the
// next link.
func (s *Server) handleDeleteJoinMap(w http.ResponseWriter, r *http.Request) {
	if s.overrides == nil {
		writeUnavailable(w, "join map overrides are not configured")
		return
	}
	key := chi.URLParam(r, "key")

	if err := s.overrides.Delete(r.Context(), key); err != nil {
		if errors.Is(err, joinmap.ErrOverrideNotFound) {
			writeNotFound(w, "join map override not found")
			return
		}
		s.logger.Error("deleting join map override", "key", key, "error", err)
		writeInternalError(w, "failed to delete join map override")
		return
	}

	s.logger.Info("join map override deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// defaultFor finds the device whose default map key selects: the device
// with that key, or one linked under that join map key.
func (s *Server) defaultFor(key string) (Device, bool) {
	if d, ok := s.device(key); ok {
		return d, true
	}
	for _, d := range s.devices {
		for _, res := range s.linker.DeviceResults(d.Key()) {
			if strings.EqualFold(res.JoinMapKey, key) {
				return d, true
			}
		}
	}
	return nil, false
}
