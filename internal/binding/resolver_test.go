package binding

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/hardware/sim"
)

type logEntry struct {
	level string
	msg   string
	args  map[string]any
}

// captureLogger records entries for assertions.
type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) log(level, msg string, args []any) {
	m := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			m[k] = args[i+1]
		}
	}
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg, m})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

func (l *captureLogger) reasons() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if r, ok := e.args["reason"].(string); ok {
			out = append(out, r)
		}
	}
	return out
}

// parent is a registry entry backed by a simulated endpoint.
type parent struct {
	key string
	*sim.Endpoint
}

func (p parent) Key() string  { return p.key }
func (p parent) Name() string { return p.key }

// plain is a registry entry with no branch capability.
type plain struct{ key string }

func (p plain) Key() string  { return p.key }
func (p plain) Name() string { return p.key }

type fixture struct {
	ctrl     *sim.Controller
	registry *device.Registry
	logger   *captureLogger
	resolver *Resolver
}

func newFixture(t *testing.T, features ...hardware.Feature) *fixture {
	t.Helper()
	f := &fixture{
		ctrl:     sim.NewController(sim.Options{Features: features}),
		registry: device.NewRegistry(),
		logger:   &captureLogger{},
	}
	f.resolver = NewResolver(f.ctrl, f.registry, f.logger)
	return f
}

// addHub registers a CEN-CN2 hub under key.
func (f *fixture) addHub(t *testing.T, key string, ipID uint32) {
	t.Helper()
	ep, err := f.resolver.Resolve(device.Descriptor{
		Key:     key,
		Control: device.Addressing{IPID: device.Uint32(ipID)},
	}, Request{Model: models.CenCn2})
	if err != nil {
		t.Fatalf("resolving hub: %v", err)
	}
	if err := f.registry.Add(parent{key, ep.(*sim.Endpoint)}); err != nil {
		t.Fatal(err)
	}
}

func sensor(key string, id uint32, parentKey string, branch *uint32) device.Descriptor {
	return device.Descriptor{
		Key:  key,
		Type: models.GlsPartCn,
		Control: device.Addressing{
			CresnetID:   device.Uint32(id),
			ParentKey:   parentKey,
			BranchIndex: branch,
		},
	}
}

func TestResolve_RootWhenParentOmitted(t *testing.T) {
	for _, parentKey := range []string{"", "processor", "PROCESSOR"} {
		t.Run("parent="+parentKey, func(t *testing.T) {
			f := newFixture(t)
			ep, err := f.resolver.Resolve(sensor("s1", 0x97, parentKey, nil), Request{Model: models.GlsPartCn})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ep.Host().HostID() != "processor/cresnet" || ep.ID() != 0x97 {
				t.Errorf("bound to %s id %d", ep.Host().HostID(), ep.ID())
			}
			if !ep.Registered() {
				t.Error("endpoint not registered")
			}
		})
	}
}

func TestResolve_ParentBranch(t *testing.T) {
	f := newFixture(t)
	f.addHub(t, "bridgeA", 0x10)

	ep, err := f.resolver.Resolve(sensor("s1", 0x20, "bridgeA", device.Uint32(2)), Request{Model: models.GlsPartCn})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := ep.Host().HostID(); got != "processor/ip/16/cresnet2" {
		t.Errorf("HostID() = %q, want bridgeA branch 2", got)
	}

	// Second sensor names an unregistered parent; the first is unaffected.
	_, err = f.resolver.Resolve(sensor("s2", 0x21, "bridgeB", nil), Request{Model: models.GlsPartCn})
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("Resolve(s2) error = %v, want ErrParentNotFound", err)
	}
	if !ep.Registered() {
		t.Error("first sensor lost its registration")
	}
	if r := f.logger.reasons(); len(r) != 1 || r[0] != "ParentNotFound" {
		t.Errorf("logged reasons = %v, want [ParentNotFound]", r)
	}
}

func TestResolve_DefaultBranchIsOne(t *testing.T) {
	f := newFixture(t)
	f.addHub(t, "hub", 0x10)

	ep, err := f.resolver.Resolve(sensor("s1", 0x20, "hub", nil), Request{Model: models.GlsPartCn})
	if err != nil {
		t.Fatal(err)
	}
	if got := ep.Host().HostID(); got != "processor/ip/16/cresnet1" {
		t.Errorf("HostID() = %q, want branch 1", got)
	}
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, f *fixture)
		desc   device.Descriptor
		req    Request
		want   error
		reason string
	}{
		{
			name:   "parent incapable",
			setup:  func(t *testing.T, f *fixture) { _ = f.registry.Add(plain{"display-1"}) },
			desc:   sensor("s1", 0x20, "display-1", nil),
			req:    Request{Model: models.GlsPartCn},
			want:   ErrParentIncapable,
			reason: "ParentIncapable",
		},
		{
			name:  "parent has branches of another transport",
			setup: func(t *testing.T, f *fixture) { f.addHub(t, "hub", 0x10) },
			desc: device.Descriptor{Key: "remote", Control: device.Addressing{
				RFID: device.Uint32(3), ParentKey: "hub",
			}},
			req:    Request{Model: models.Hr310},
			want:   ErrParentIncapable,
			reason: "ParentIncapable",
		},
		{
			name:   "branch out of range",
			setup:  func(t *testing.T, f *fixture) { f.addHub(t, "hub", 0x10) },
			desc:   sensor("s1", 0x20, "hub", device.Uint32(3)),
			req:    Request{Model: models.GlsPartCn},
			want:   ErrBranchNotFound,
			reason: "BranchNotFound",
		},
		{
			name:   "embedded gateway unsupported",
			desc:   device.Descriptor{Key: "rfgw"},
			req:    Request{Model: models.InternalRfgw, Embedded: true, Feature: hardware.FeatureInternalRFGateway},
			want:   ErrUnsupportedOnPlatform,
			reason: "UnsupportedOnPlatform",
		},
		{
			name: "rf on root without internal gateway",
			desc: device.Descriptor{Key: "remote", Control: device.Addressing{
				RFID: device.Uint32(3),
			}},
			req:    Request{Model: models.Hr310},
			want:   ErrUnsupportedOnPlatform,
			reason: "UnsupportedOnPlatform",
		},
		{
			name:   "registration refused for id zero",
			desc:   sensor("s1", 0, "", nil),
			req:    Request{Model: models.GlsPartCn},
			want:   ErrRegistrationFailed,
			reason: "RegistrationFailed",
		},
		{
			name: "registration refused for duplicate id",
			setup: func(t *testing.T, f *fixture) {
				if _, err := f.resolver.Resolve(sensor("first", 0x30, "", nil), Request{Model: models.GlsPartCn}); err != nil {
					t.Fatal(err)
				}
			},
			desc:   sensor("second", 0x30, "", nil),
			req:    Request{Model: models.C2nRths},
			want:   ErrRegistrationFailed,
			reason: "RegistrationFailed",
		},
		{
			name:   "no id",
			desc:   device.Descriptor{Key: "s1"},
			req:    Request{Model: models.GlsPartCn},
			want:   ErrInvalidAddress,
			reason: "InvalidAddress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			ep, err := f.resolver.Resolve(tt.desc, tt.req)
			if ep != nil {
				t.Errorf("Resolve() returned endpoint %v on failure", ep)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.want)
			}
			if got := Reason(err); got != tt.reason {
				t.Errorf("Reason() = %q, want %q", got, tt.reason)
			}
			reasons := f.logger.reasons()
			if len(reasons) == 0 || reasons[len(reasons)-1] != tt.reason {
				t.Errorf("logged reasons = %v, want last %q", reasons, tt.reason)
			}
		})
	}
}

func TestResolve_EmbeddedGateway(t *testing.T) {
	f := newFixture(t, hardware.FeatureInternalRFGateway)
	ep, err := f.resolver.Resolve(device.Descriptor{Key: "rfgw"}, Request{
		Model:    models.InternalRfgw,
		Embedded: true,
		Feature:  hardware.FeatureInternalRFGateway,
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !ep.IsOnline() {
		t.Error("embedded gateway should be online")
	}

	// Remotes on the root bind to the internal gateway's radio.
	remote, err := f.resolver.Resolve(device.Descriptor{Key: "remote", Control: device.Addressing{
		RFID: device.Uint32(4),
	}}, Request{Model: models.Hr100})
	if err != nil {
		t.Fatalf("Resolve(remote) error = %v", err)
	}
	if remote.Host().Transport() != hardware.TransportRF {
		t.Errorf("remote host transport = %s", remote.Host().Transport())
	}
}

func TestResolve_MultiHop(t *testing.T) {
	// processor -> hub (ip) -> gateway (cresnet branch 1) -> remote (rf)
	f := newFixture(t)
	f.addHub(t, "hub", 0x10)

	gw, err := f.resolver.Resolve(device.Descriptor{Key: "gw", Control: device.Addressing{
		CresnetID: device.Uint32(0x25), ParentKey: "hub",
	}}, Request{Model: models.CenRfgwEx})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.registry.Add(parent{"gw", gw.(*sim.Endpoint)}); err != nil {
		t.Fatal(err)
	}

	remote, err := f.resolver.Resolve(device.Descriptor{Key: "remote", Control: device.Addressing{
		RFID: device.Uint32(7), ParentKey: "gw",
	}}, Request{Model: models.Hr150})
	if err != nil {
		t.Fatalf("Resolve(remote) error = %v", err)
	}
	if got := remote.Host().HostID(); got != "processor/ip/16/cresnet1/37/rf1" {
		t.Errorf("HostID() = %q", got)
	}
}
