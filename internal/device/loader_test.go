package device

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-io/internal/hardware"
)

const sampleDevices = `
devices:
  - key: hub-1
    name: Cresnet Hub
    type: CENCN2
    control:
      ip_id: 0x10
  - key: partition-1
    name: Ballroom Partition
    type: glspartcn
    control:
      cresnet_id: 0x97
      parent_key: hub-1
      branch_index: 2
    properties:
      sensitivity: 6
      enableSensor: true
  - key: rfgw
    name: Internal Gateway
    type: internal
`

func TestLoadDescriptors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte(sampleDevices), 0600); err != nil {
		t.Fatal(err)
	}

	descs, err := LoadDescriptors(path)
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}
	if len(descs) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(descs))
	}

	if descs[0].Type != "cencn2" {
		t.Errorf("type not normalised: %q", descs[0].Type)
	}

	p := descs[1]
	tr, id, err := p.Control.Endpoint()
	if err != nil {
		t.Fatal(err)
	}
	if tr != hardware.TransportCresnet || id != 0x97 {
		t.Errorf("Endpoint() = %s %d", tr, id)
	}
	if p.Control.IsRoot() || p.Control.Branch() != 2 {
		t.Errorf("control = %+v", p.Control)
	}

	var props struct {
		Sensitivity  *int  `yaml:"sensitivity"`
		EnableSensor *bool `yaml:"enableSensor"`
	}
	if err := p.DecodeProperties(&props); err != nil {
		t.Fatal(err)
	}
	if props.Sensitivity == nil || *props.Sensitivity != 6 || props.EnableSensor == nil || !*props.EnableSensor {
		t.Errorf("properties = %+v", props)
	}

	if descs[2].Control.HasID() {
		t.Error("embedded device should have no id")
	}
	var none struct{ X int }
	if err := descs[2].DecodeProperties(&none); err != nil {
		t.Errorf("DecodeProperties(missing) error = %v", err)
	}
}

func TestParseDescriptors_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing key",
			yaml: "devices:\n  - type: c2nrths\n    control: {cresnet_id: 3}\n",
			want: "key is required",
		},
		{
			name: "duplicate key",
			yaml: "devices:\n  - {key: a, type: c2nrths}\n  - {key: A, type: c2nrths}\n",
			want: "duplicates",
		},
		{
			name: "two ids",
			yaml: "devices:\n  - {key: a, type: c2nrths, control: {cresnet_id: 3, ip_id: 4}}\n",
			want: "mutually exclusive",
		},
		{
			name: "zero branch",
			yaml: "devices:\n  - {key: a, type: c2nrths, control: {cresnet_id: 3, parent_key: hub, branch_index: 0}}\n",
			want: "branch_index",
		},
		{
			name: "slot on root",
			yaml: "devices:\n  - {key: a, type: c3ry16, control: {slot: 1}}\n",
			want: "card cage",
		},
		{
			name: "self parent",
			yaml: "devices:\n  - {key: a, type: c2nrths, control: {cresnet_id: 3, parent_key: a}}\n",
			want: "itself",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescriptors([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidDevice) {
				t.Fatalf("error = %v, want ErrInvalidDevice", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestAddressing_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		a          Addressing
		wantRoot   bool
		wantBranch uint32
	}{
		{"empty parent", Addressing{}, true, 1},
		{"processor sentinel", Addressing{ParentKey: "Processor"}, true, 1},
		{"named parent default branch", Addressing{ParentKey: "hub"}, false, 1},
		{"explicit branch", Addressing{ParentKey: "hub", BranchIndex: Uint32(3)}, false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.IsRoot() != tt.wantRoot {
				t.Errorf("IsRoot() = %v", tt.a.IsRoot())
			}
			if tt.a.Branch() != tt.wantBranch {
				t.Errorf("Branch() = %d", tt.a.Branch())
			}
		})
	}
}

func TestAddressing_EndpointRequiresID(t *testing.T) {
	if _, _, err := (Addressing{}).Endpoint(); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("Endpoint() error = %v, want ErrInvalidAddress", err)
	}
}
