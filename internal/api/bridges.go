package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

// joinLister is implemented by transports that remember written joins.
type joinLister interface {
	Joins() []bridge.JoinValue
}

// injector is implemented by transports that accept simulated inbound values.
type injector interface {
	Inject(j bridge.Join, raw string) (int, error)
}

// BridgeView summarises a bridge and what is linked to it.
type BridgeView struct {
	Key     string   `json:"key"`
	Online  bool     `json:"online"`
	Devices []string `json:"devices"`
}

// injectRequest is the body for POST /bridges/{key}/inject.
type injectRequest struct {
	Type  joinmap.SignalType `json:"type"`
	Join  uint32             `json:"join"`
	Value string             `json:"value"`
}

// handleListBridges returns every registered bridge.
func (s *Server) handleListBridges(w http.ResponseWriter, _ *http.Request) {
	keys := s.linker.Bridges()
	views := make([]BridgeView, 0, len(keys))
	for _, key := range keys {
		t, ok := s.linker.Transport(key)
		if !ok {
			continue
		}
		v := BridgeView{Key: key, Online: t.IsOnline(), Devices: []string{}}
		for _, res := range s.linker.Results(key) {
			v.Devices = append(v.Devices, res.Device)
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bridges": views,
		"count":   len(views),
	})
}

// handleGetJoins returns the link results for a bridge and, when the
// transport keeps them, the last value written to each join.
func (s *Server) handleGetJoins(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	t, ok := s.linker.Transport(key)
	if !ok {
		writeNotFound(w, "bridge not found")
		return
	}

	resp := map[string]any{
		"bridge": t.Key(),
		"online": t.IsOnline(),
		"links":  s.linker.Results(t.Key()),
	}
	if jl, ok := t.(joinLister); ok {
		resp["values"] = jl.Joins()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInject delivers a value to a bridge as if it came from the far side.
func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	t, ok := s.linker.Transport(key)
	if !ok {
		writeNotFound(w, "bridge not found")
		return
	}
	inj, ok := t.(injector)
	if !ok {
		writeError(w, http.StatusNotImplemented, ErrCodeBadRequest, "bridge does not accept injected values")
		return
	}

	var req injectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "type must be digital, analog or serial")
		return
	}
	if req.Join == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "join must be at least 1")
		return
	}

	j := bridge.Join{Type: req.Type, Number: req.Join}
	handled, err := inj.Inject(j, req.Value)
	if err != nil {
		if errors.Is(err, bridge.ErrInvalidPayload) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("injecting join value", "bridge", key, "join", j.String(), "error", err)
		writeInternalError(w, "inject failed")
		return
	}

	s.logger.Info("join value injected", "bridge", key, "join", j.String(), "handlers", handled)
	writeJSON(w, http.StatusOK, map[string]any{
		"bridge":   t.Key(),
		"join":     j,
		"handlers": handled,
	})
}
