package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-io/internal/bridge"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

// FeedbackView is one feedback and its current value.
type FeedbackView struct {
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// EndpointView describes a device's bound hardware endpoint.
type EndpointView struct {
	ID     uint32 `json:"id"`
	Model  string `json:"model"`
	Host   string `json:"host"`
	Online bool   `json:"online"`
}

// DeviceView is the API representation of a device module.
type DeviceView struct {
	Key      string         `json:"key"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Model    string         `json:"model"`
	State    string         `json:"state"`
	Error    string         `json:"error,omitempty"`
	Endpoint *EndpointView  `json:"endpoint,omitempty"`
	Links    []LinkSummary  `json:"links,omitempty"`
	Feeds    []FeedbackView `json:"feedbacks,omitempty"`
}

// LinkSummary names a bridge a device is linked to.
type LinkSummary struct {
	Bridge     string `json:"bridge"`
	JoinStart  uint32 `json:"join_start"`
	JoinMapKey string `json:"join_map_key"`
	Origin     string `json:"join_map_origin"`
}

// handleListDevices returns every device, sorted by key.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	views := make([]DeviceView, 0, len(s.devices))
	for _, d := range s.devices {
		views = append(views, s.deviceView(d, false))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": views,
		"count":   len(views),
	})
}

// handleGetDevice returns one device with its feedbacks and links.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(chi.URLParam(r, "key"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, s.deviceView(d, true))
}

// handleGetFeedbacks returns the current value of every feedback.
func (s *Server) handleGetFeedbacks(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(chi.URLParam(r, "key"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device":    d.Key(),
		"feedbacks": feedbackViews(d),
	})
}

// handleRefreshDevice fires every feedback of the device so linked bridges
// receive current values.
func (s *Server) handleRefreshDevice(w http.ResponseWriter, r *http.Request) {
	d, ok := s.device(chi.URLParam(r, "key"))
	if !ok {
		writeNotFound(w, "device not found")
		return
	}
	if d.Endpoint() == nil {
		writeError(w, http.StatusConflict, ErrCodeConflict, "device is not bound to hardware")
		return
	}

	d.Refresh()
	s.logger.Info("device refreshed", "device", d.Key())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"device":    d.Key(),
		"refreshed": d.Feedbacks().Len(),
	})
}

func (s *Server) deviceView(d Device, detail bool) DeviceView {
	v := DeviceView{
		Key:   d.Key(),
		Name:  d.Name(),
		Type:  d.Type(),
		Model: d.Model(),
		State: "unknown",
	}
	if s.states != nil {
		if st, ok := s.states.State(d.Key()); ok {
			v.State = st.String()
		}
		if err := s.states.Err(d.Key()); err != nil {
			v.Error = err.Error()
		}
	}
	if ep := d.Endpoint(); ep != nil {
		v.Endpoint = endpointView(ep)
	}
	if !detail {
		return v
	}

	v.Feeds = feedbackViews(d)
	for _, res := range s.linker.DeviceResults(d.Key()) {
		v.Links = append(v.Links, linkSummary(res))
	}
	return v
}

func endpointView(ep hardware.Endpoint) *EndpointView {
	v := &EndpointView{
		ID:     ep.ID(),
		Model:  ep.Model(),
		Online: ep.IsOnline(),
	}
	if h := ep.Host(); h != nil {
		v.Host = h.HostID()
	}
	return v
}

func feedbackViews(d Device) []FeedbackView {
	all := d.Feedbacks().All()
	views := make([]FeedbackView, 0, len(all))
	for _, fb := range all {
		views = append(views, FeedbackView{
			Key:   fb.Key(),
			Kind:  fb.Kind().String(),
			Value: fb.Current(),
		})
	}
	return views
}

func linkSummary(res *bridge.Result) LinkSummary {
	return LinkSummary{
		Bridge:     res.Bridge,
		JoinStart:  res.JoinStart,
		JoinMapKey: res.JoinMapKey,
		Origin:     string(res.Origin),
	}
}
