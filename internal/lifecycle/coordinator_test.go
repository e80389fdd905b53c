package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-io/internal/binding"
	"github.com/nerrad567/gray-logic-io/internal/device"
	"github.com/nerrad567/gray-logic-io/internal/hardware"
	"github.com/nerrad567/gray-logic-io/internal/hardware/models"
	"github.com/nerrad567/gray-logic-io/internal/hardware/sim"
)

// journal records activation calls across devices in order.
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.calls = append(j.calls, s)
	j.mu.Unlock()
}

func (j *journal) index(s string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, c := range j.calls {
		if c == s {
			return i
		}
	}
	return -1
}

// boundDevice resolves its descriptor in PreActivate and exposes the
// endpoint's branches, like a real hub or sensor adapter.
type boundDevice struct {
	desc  device.Descriptor
	model string
	j     *journal
	ep    hardware.Endpoint
	post  bool
}

func (d *boundDevice) Key() string  { return d.desc.Key }
func (d *boundDevice) Name() string { return d.desc.Name }

func (d *boundDevice) DependsOn() []string {
	if d.desc.Control.IsRoot() {
		return nil
	}
	return []string{d.desc.Control.ParentKey}
}

func (d *boundDevice) PreActivate(_ context.Context, env Env) error {
	d.j.add("pre:" + d.desc.Key)
	ep, err := env.Resolver.Resolve(d.desc, binding.Request{Model: d.model})
	if err != nil {
		return err
	}
	d.ep = ep
	return nil
}

func (d *boundDevice) PostActivate(_ context.Context, _ Env) error {
	if d.post {
		d.j.add("post:" + d.desc.Key)
	}
	return nil
}

func (d *boundDevice) Branches(t hardware.Transport) int {
	if b, ok := d.ep.(hardware.HasBranches); ok {
		return b.Branches(t)
	}
	return 0
}

func (d *boundDevice) Branch(t hardware.Transport, i uint32) (hardware.Host, error) {
	return d.ep.(hardware.HasBranches).Branch(t, i)
}

func newEnv() (Env, *sim.Controller) {
	ctrl := sim.NewController(sim.Options{})
	reg := device.NewRegistry()
	return Env{Resolver: binding.NewResolver(ctrl, reg, nil), Registry: reg}, ctrl
}

func hub(j *journal, key string, ipID uint32) *boundDevice {
	return &boundDevice{
		desc:  device.Descriptor{Key: key, Name: key, Control: device.Addressing{IPID: device.Uint32(ipID)}},
		model: models.CenCn2,
		j:     j,
		post:  true,
	}
}

func partition(j *journal, key string, id uint32, parent string, branch *uint32) *boundDevice {
	return &boundDevice{
		desc: device.Descriptor{Key: key, Name: key, Control: device.Addressing{
			CresnetID: device.Uint32(id), ParentKey: parent, BranchIndex: branch,
		}},
		model: models.GlsPartCn,
		j:     j,
		post:  true,
	}
}

func TestActivate_ParentBeforeChildAndPreBeforePost(t *testing.T) {
	env, _ := newEnv()
	j := &journal{}
	c := NewCoordinator(env, nil)

	// Child listed first; ordering must still put the hub first.
	child := partition(j, "sensor", 0x20, "bridgeA", device.Uint32(2))
	parent := hub(j, "bridgeA", 0x10)
	for _, d := range []Device{child, parent} {
		if err := c.Add(d); err != nil {
			t.Fatal(err)
		}
	}

	report, err := c.Activate(context.Background())
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if report.Ready != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}

	if j.index("pre:bridgeA") > j.index("pre:sensor") {
		t.Errorf("child pre-activated before parent: %v", j.calls)
	}
	lastPre := j.index("pre:sensor")
	if j.index("pre:bridgeA") > lastPre {
		lastPre = j.index("pre:bridgeA")
	}
	for _, post := range []string{"post:bridgeA", "post:sensor"} {
		if j.index(post) < lastPre {
			t.Errorf("%s ran before pre-activation finished: %v", post, j.calls)
		}
	}

	if got := child.ep.Host().HostID(); got != "processor/ip/16/cresnet2" {
		t.Errorf("sensor bound to %q, want bridgeA branch 2", got)
	}
	if s, _ := c.State("sensor"); s != Ready {
		t.Errorf("State(sensor) = %v, want ready", s)
	}
	if env.Registry.Count() != 2 {
		t.Errorf("registry count = %d, want 2", env.Registry.Count())
	}
}

func TestActivate_FailureIsIsolated(t *testing.T) {
	env, _ := newEnv()
	j := &journal{}
	c := NewCoordinator(env, nil)

	good := partition(j, "sensor-a", 0x20, "bridgeA", device.Uint32(2))
	bad := partition(j, "sensor-b", 0x21, "bridgeB", nil)
	for _, d := range []Device{hub(j, "bridgeA", 0x10), good, bad} {
		if err := c.Add(d); err != nil {
			t.Fatal(err)
		}
	}

	report, err := c.Activate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	b, _ := report.Device("sensor-b")
	if b.State != Constructed || b.Reason != "ParentNotFound" {
		t.Errorf("sensor-b report = %+v", b)
	}
	if !errors.Is(c.Err("sensor-b"), binding.ErrParentNotFound) {
		t.Errorf("Err(sensor-b) = %v", c.Err("sensor-b"))
	}
	if _, ok := env.Registry.Lookup("sensor-b"); ok {
		t.Error("failed device was registered")
	}
	if j.index("post:sensor-b") != -1 {
		t.Error("post-activation ran for a failed device")
	}

	a, _ := report.Device("sensor-a")
	if a.State != Ready {
		t.Errorf("sensor-a state = %v, want ready", a.State)
	}
	if report.Ready != 2 || report.Failed != 1 {
		t.Errorf("ready/failed = %d/%d, want 2/1", report.Ready, report.Failed)
	}
	if report.BatchID == "" {
		t.Error("report has no batch id")
	}
}

// lateDevice resolves in PostActivate, like an RF remote binding through
// its gateway.
type lateDevice struct {
	*boundDevice
}

func (d *lateDevice) BindsAtPostActivation() bool { return true }

func (d *lateDevice) PreActivate(context.Context, Env) error {
	d.j.add("pre:" + d.desc.Key)
	return nil
}

func (d *lateDevice) PostActivate(_ context.Context, env Env) error {
	d.j.add("post:" + d.desc.Key)
	ep, err := env.Resolver.Resolve(d.desc, binding.Request{Model: d.model})
	if err != nil {
		return err
	}
	d.ep = ep
	return nil
}

func TestActivate_LateBinding(t *testing.T) {
	env, _ := newEnv()
	j := &journal{}
	c := NewCoordinator(env, nil)

	good := &lateDevice{partition(j, "late-a", 0x20, "bridgeA", nil)}
	bad := &lateDevice{partition(j, "late-b", 0x21, "bridgeB", nil)}
	for _, d := range []Device{good, bad, hub(j, "bridgeA", 0x10)} {
		if err := c.Add(d); err != nil {
			t.Fatal(err)
		}
	}

	report, err := c.Activate(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	a, _ := report.Device("late-a")
	if a.State != Ready || good.ep == nil {
		t.Errorf("late-a report = %+v, bound = %v", a, good.ep != nil)
	}
	if _, ok := env.Registry.Lookup("late-a"); !ok {
		t.Error("late-a not registered after binding")
	}

	b, _ := report.Device("late-b")
	if b.State != Constructed || b.Reason != "ParentNotFound" || b.Error == "" {
		t.Errorf("late-b report = %+v, want constructed with ParentNotFound", b)
	}
	if !errors.Is(c.Err("late-b"), binding.ErrParentNotFound) {
		t.Errorf("Err(late-b) = %v", c.Err("late-b"))
	}
	if _, ok := env.Registry.Lookup("late-b"); ok {
		t.Error("unbound late device was registered")
	}
	if report.Ready != 2 || report.Failed != 1 {
		t.Errorf("ready/failed = %d/%d, want 2/1", report.Ready, report.Failed)
	}
}

func TestActivate_StateListener(t *testing.T) {
	env, _ := newEnv()
	j := &journal{}
	c := NewCoordinator(env, nil)

	var seen []State
	c.OnStateChange(func(key string, s State) {
		if key == "bridgeA" {
			seen = append(seen, s)
		}
	})
	_ = c.Add(hub(j, "bridgeA", 0x10))
	if _, err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != PreActivated || seen[1] != Ready {
		t.Errorf("transitions = %v, want [pre-activated ready]", seen)
	}
}

func TestActivate_BatchesAreIndependent(t *testing.T) {
	env, _ := newEnv()
	j := &journal{}
	c := NewCoordinator(env, nil)

	_ = c.Add(hub(j, "bridgeA", 0x10))
	if _, err := c.Activate(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A later batch can name a parent from an earlier one.
	_ = c.Add(partition(j, "late", 0x30, "bridgeA", nil))
	report, err := c.Activate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Devices) != 1 || report.Ready != 1 {
		t.Errorf("second batch report = %+v", report)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	env, _ := newEnv()
	c := NewCoordinator(env, nil)
	j := &journal{}
	if err := c.Add(hub(j, "hub", 0x10)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(hub(j, "HUB", 0x11)); !errors.Is(err, ErrDuplicateDevice) {
		t.Errorf("Add(duplicate) error = %v, want ErrDuplicateDevice", err)
	}
}

func TestActivate_Cancelled(t *testing.T) {
	env, _ := newEnv()
	c := NewCoordinator(env, nil)
	_ = c.Add(hub(&journal{}, "hub", 0x10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Activate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Activate() error = %v, want context.Canceled", err)
	}
}

func TestOrder_CycleFallsBackToInputOrder(t *testing.T) {
	j := &journal{}
	a := partition(j, "a", 1, "b", nil)
	b := partition(j, "b", 2, "a", nil)
	root := hub(j, "root", 3)

	got, cyclic := order([]Device{a, b, root})
	if len(cyclic) != 2 {
		t.Fatalf("cyclic = %v, want [a b]", cyclic)
	}
	want := []string{"root", "a", "b"}
	for i, d := range got {
		if d.Key() != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, d.Key(), want[i])
		}
	}
}

func TestWhenOnline(t *testing.T) {
	ctrl := sim.NewController(sim.Options{})
	root, _ := ctrl.Host(hardware.TransportCresnet)
	raw, _ := root.Attach(models.GlsPartCn, 0x40)
	ep := raw.(*sim.Endpoint)
	if err := ep.Register(); err != nil {
		t.Fatal(err)
	}

	calls := 0
	WhenOnline(ep, func() { calls++ })
	if calls != 0 {
		t.Fatalf("ran while offline")
	}
	ep.SetOnline(true)
	ep.SetOnline(false)
	ep.SetOnline(true)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	// Already online: runs once immediately.
	immediate := 0
	WhenOnline(ep, func() { immediate++ })
	if immediate != 1 {
		t.Errorf("immediate calls = %d, want 1", immediate)
	}
}
