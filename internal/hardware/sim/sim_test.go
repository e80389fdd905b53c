package sim

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
)

func attach(t *testing.T, h hardware.Host, model string, id uint32) *Endpoint {
	t.Helper()
	ep, err := h.Attach(model, id)
	if err != nil {
		t.Fatalf("Attach(%s, %d) error = %v", model, id, err)
	}
	return ep.(*Endpoint)
}

func TestHost_RegisterValidatesID(t *testing.T) {
	c := NewController(Options{})
	root, _ := c.Host(hardware.TransportCresnet)

	tests := []struct {
		name    string
		id      uint32
		wantErr error
	}{
		{"zero id", 0, hardware.ErrInvalidID},
		{"too large", 0x1FF, hardware.ErrInvalidID},
		{"valid", 0x97, nil},
		{"duplicate", 0x97, hardware.ErrIDInUse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := attach(t, root, models.GlsPartCn, tt.id)
			err := ep.Register()
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if (err == nil) != ep.Registered() {
				t.Errorf("Registered() = %v after error %v", ep.Registered(), err)
			}
		})
	}
}

func TestHost_AttachRejectsWrongTransport(t *testing.T) {
	c := NewController(Options{})
	ip, _ := c.Host(hardware.TransportIP)

	if _, err := ip.Attach(models.GlsPartCn, 3); !errors.Is(err, hardware.ErrUnknownModel) {
		t.Errorf("Attach(glspartcn on ip) error = %v, want ErrUnknownModel", err)
	}
	if _, err := ip.Attach("nope", 3); !errors.Is(err, hardware.ErrUnknownModel) {
		t.Errorf("Attach(nope) error = %v, want ErrUnknownModel", err)
	}
}

func TestController_RFHostRequiresFeature(t *testing.T) {
	plain := NewController(Options{})
	if _, err := plain.Host(hardware.TransportRF); !errors.Is(err, hardware.ErrNotSupported) {
		t.Errorf("Host(rf) error = %v, want ErrNotSupported", err)
	}
	if _, err := plain.Host(hardware.TransportCardSlot); !errors.Is(err, hardware.ErrNoHost) {
		t.Errorf("Host(cardslot) error = %v, want ErrNoHost", err)
	}

	withGW := NewController(Options{Features: []hardware.Feature{hardware.FeatureInternalRFGateway}})
	h, err := withGW.Host(hardware.TransportRF)
	if err != nil {
		t.Fatalf("Host(rf) error = %v", err)
	}
	if h.Transport() != hardware.TransportRF {
		t.Errorf("Transport() = %s", h.Transport())
	}
	remote := attach(t, h, models.Hr310, 5)
	if err := remote.Register(); err != nil {
		t.Errorf("Register() on internal gateway error = %v", err)
	}
}

func TestEndpoint_BranchesAndCardSlots(t *testing.T) {
	c := NewController(Options{})
	ip, _ := c.Host(hardware.TransportIP)

	hub := attach(t, ip, models.CenCn2, 0x10)
	if got := hub.Branches(hardware.TransportCresnet); got != 2 {
		t.Fatalf("Branches(cresnet) = %d, want 2", got)
	}
	if _, err := hub.Branch(hardware.TransportCresnet, 3); !errors.Is(err, hardware.ErrNoBranch) {
		t.Errorf("Branch(3) error = %v, want ErrNoBranch", err)
	}
	b2, err := hub.Branch(hardware.TransportCresnet, 2)
	if err != nil {
		t.Fatalf("Branch(2) error = %v", err)
	}
	if b2.HostID() != "processor/ip/16/cresnet2" {
		t.Errorf("HostID() = %q", b2.HostID())
	}

	cage := attach(t, ip, models.CenCi33, 0x11)
	bus, _ := cage.Branch(hardware.TransportCardSlot, 1)
	if err := attach(t, bus, models.C3Ry16, 3).Register(); err != nil {
		t.Errorf("card in slot 3 error = %v", err)
	}
	if err := attach(t, bus, models.C3Ry16, 4).Register(); !errors.Is(err, hardware.ErrInvalidID) {
		t.Errorf("card in slot 4 of 3 error = %v, want ErrInvalidID", err)
	}
}

func TestEndpoint_WriteEchoesWhenOnline(t *testing.T) {
	c := NewController(Options{})
	root, _ := c.Host(hardware.TransportCresnet)
	ep := attach(t, root, models.GlsPartCn, 0x20)

	if err := ep.SetBool(models.GlsEnable, true); !errors.Is(err, hardware.ErrNotRegistered) {
		t.Fatalf("SetBool before Register error = %v", err)
	}
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}

	var events atomic.Int32
	ep.OnEvent(func(ev hardware.Event) {
		if ev.ID == models.GlsEnableEventID {
			events.Add(1)
		}
	})

	if err := ep.SetBool(models.GlsEnable, true); err != nil {
		t.Fatal(err)
	}
	if events.Load() != 0 {
		t.Error("offline write raised an event")
	}

	ep.SetOnline(true)
	if err := ep.SetBool(models.GlsEnable, false); err != nil {
		t.Fatal(err)
	}
	if events.Load() != 1 {
		t.Errorf("events = %d, want 1", events.Load())
	}
	if ep.Bool(models.GlsEnable) {
		t.Error("Enable = true after write of false")
	}

	if err := ep.SetBool(models.GlsPartitionSensed, true); !errors.Is(err, hardware.ErrReadOnly) {
		t.Errorf("write to input error = %v, want ErrReadOnly", err)
	}
	if err := ep.SetInt(models.GlsEnable, 1); !errors.Is(err, hardware.ErrUnknownPoint) {
		t.Errorf("kind mismatch error = %v, want ErrUnknownPoint", err)
	}
	if got := len(ep.Writes()); got != 2 {
		t.Errorf("Writes() = %d, want 2", got)
	}
}

func TestEndpoint_SetOnlineNotifiesOnChangeOnly(t *testing.T) {
	c := NewController(Options{})
	root, _ := c.Host(hardware.TransportCresnet)
	ep := attach(t, root, models.C2nRths, 0x21)

	var calls []bool
	ep.OnOnlineChange(func(online bool) { calls = append(calls, online) })

	ep.SetOnline(true) // unregistered, ignored
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}
	ep.SetOnline(true)
	ep.SetOnline(true)
	ep.SetOnline(false)

	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("calls = %v, want [true false]", calls)
	}
}

func TestEndpoint_AutoOnline(t *testing.T) {
	c := NewController(Options{AutoOnline: true})
	root, _ := c.Host(hardware.TransportCresnet)
	ep := attach(t, root, models.Din8Sw8, 0x22)
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}
	if !ep.IsOnline() {
		t.Error("IsOnline() = false with AutoOnline")
	}
	if got, ok := c.Find("processor/cresnet", 0x22); !ok || got != ep {
		t.Error("Find() did not return the registered endpoint")
	}
}

func TestEndpoint_Commands(t *testing.T) {
	c := NewController(Options{AutoOnline: true})
	root, _ := c.Host(hardware.TransportCresnet)
	ep := attach(t, root, models.GlsPartCn, 0x23)
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < models.GlsSensitivityMax+3; i++ {
		if err := ep.Invoke(models.GlsIncreaseSensitivity); err != nil {
			t.Fatal(err)
		}
	}
	if got := ep.Int(models.GlsSensitivity); got != models.GlsSensitivityMax {
		t.Errorf("Sensitivity = %d, want clamp at %d", got, models.GlsSensitivityMax)
	}
	if err := ep.Invoke("Reboot"); !errors.Is(err, hardware.ErrUnknownPoint) {
		t.Errorf("Invoke(Reboot) error = %v", err)
	}
}

func TestEndpoint_DriveRaisesEvent(t *testing.T) {
	c := NewController(Options{})
	root, _ := c.Host(hardware.TransportCresnet)
	ep := attach(t, root, models.DinIo8, 0x24)
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}

	var got hardware.Event
	ep.OnEvent(func(ev hardware.Event) { got = ev })

	if err := ep.Drive("AnalogIn5", 1200); err != nil {
		t.Fatal(err)
	}
	want := hardware.Event{ID: models.VersiportAnalogInEventID, Index: 5}
	if got != want {
		t.Errorf("event = %v, want %v", got, want)
	}
	if err := ep.Drive("AnalogIn5", true); !errors.Is(err, hardware.ErrUnknownPoint) {
		t.Errorf("Drive kind mismatch error = %v", err)
	}
}
