package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/gray-logic-io/internal/lifecycle"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	Devices       DeviceMetrics   `json:"devices"`
	Bridges       []BridgeMetrics `json:"bridges"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DeviceMetrics counts devices by bring-up state and endpoint status.
type DeviceMetrics struct {
	Total   int            `json:"total"`
	Online  int            `json:"online"`
	Unbound int            `json:"unbound"`
	ByState map[string]int `json:"by_state"`
}

// BridgeMetrics contains per-bridge statistics.
type BridgeMetrics struct {
	Key     string `json:"key"`
	Online  bool   `json:"online"`
	Devices int    `json:"devices"`
	Outputs int    `json:"outputs"`
	Inputs  int    `json:"inputs"`
	Skipped int    `json:"skipped"`
}

// handleMetrics returns runtime, device and bridge metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	// Collect runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Devices: s.deviceMetrics(),
		Bridges: s.bridgeMetrics(),
	}

	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) deviceMetrics() DeviceMetrics {
	m := DeviceMetrics{
		Total:   len(s.devices),
		ByState: make(map[string]int),
	}
	for _, d := range s.devices {
		ep := d.Endpoint()
		switch {
		case ep == nil:
			m.Unbound++
		case ep.IsOnline():
			m.Online++
		}

		state := lifecycle.Constructed
		if s.states != nil {
			if st, ok := s.states.State(d.Key()); ok {
				state = st
			}
		}
		m.ByState[state.String()]++
	}
	return m
}

func (s *Server) bridgeMetrics() []BridgeMetrics {
	keys := s.linker.Bridges()
	out := make([]BridgeMetrics, 0, len(keys))
	for _, key := range keys {
		t, ok := s.linker.Transport(key)
		if !ok {
			continue
		}
		bm := BridgeMetrics{Key: key, Online: t.IsOnline()}
		for _, res := range s.linker.Results(key) {
			bm.Devices++
			bm.Outputs += len(res.Outputs)
			bm.Inputs += len(res.Inputs)
			bm.Skipped += len(res.Skipped)
		}
		out = append(out, bm)
	}
	return out
}
