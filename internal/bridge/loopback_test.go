package bridge

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-io/internal/joinmap"
)

func TestLoopbackOnlineNotifiesOnChange(t *testing.T) {
	lb := NewLoopback("panel")
	if lb.IsOnline() {
		t.Fatal("new loopback is online")
	}

	var events []bool
	lb.OnOnlineChange(func(online bool) { events = append(events, online) })

	lb.SetOnline(true)
	lb.SetOnline(true)
	lb.SetOnline(false)

	if len(events) != 2 || !events[0] || events[1] {
		t.Errorf("events = %v, want [true false]", events)
	}
}

func TestLoopbackInject(t *testing.T) {
	lb := NewLoopback("panel")

	var (
		gotBool   bool
		gotAnalog uint16
		gotSerial string
	)
	lb.OnDigital(3, func(v bool) { gotBool = v })
	lb.OnAnalog(3, func(v uint16) { gotAnalog = v })
	lb.OnSerial(3, func(v string) { gotSerial = v })

	tests := []struct {
		name    string
		join    Join
		raw     string
		want    int
		wantErr error
	}{
		{"digital", Join{Type: joinmap.Digital, Number: 3}, "true", 1, nil},
		{"analog", Join{Type: joinmap.Analog, Number: 3}, "4096", 1, nil},
		{"serial", Join{Type: joinmap.Serial, Number: 3}, "hello", 1, nil},
		{"no handler", Join{Type: joinmap.Digital, Number: 4}, "1", 0, nil},
		{"bad digital", Join{Type: joinmap.Digital, Number: 3}, "maybe", 0, ErrInvalidPayload},
		{"analog overflow", Join{Type: joinmap.Analog, Number: 3}, "70000", 0, ErrInvalidPayload},
		{"unknown signal", Join{Type: "smart", Number: 3}, "x", 0, ErrUnknownSignal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := lb.Inject(tt.join, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Inject() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Inject() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("Inject() handlers = %d, want %d", n, tt.want)
			}
		})
	}

	if !gotBool || gotAnalog != 4096 || gotSerial != "hello" {
		t.Errorf("handlers saw %v/%d/%q", gotBool, gotAnalog, gotSerial)
	}
}

func TestLoopbackJoinsSnapshot(t *testing.T) {
	lb := NewLoopback("panel")
	lb.SetSerial(1, "name")
	lb.SetAnalog(2, 10)
	lb.SetDigital(7, true)
	lb.SetDigital(2, false)
	lb.SetAnalog(2, 11)

	got := lb.Joins()
	want := []Join{
		{Type: joinmap.Digital, Number: 2},
		{Type: joinmap.Digital, Number: 7},
		{Type: joinmap.Analog, Number: 2},
		{Type: joinmap.Serial, Number: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Joins() = %v", got)
	}
	for i := range want {
		if got[i].Join != want[i] {
			t.Errorf("Joins()[%d] = %s, want %s", i, got[i].Join, want[i])
		}
	}
	if lb.Analog(2) != 11 {
		t.Errorf("Analog(2) = %d, want last write 11", lb.Analog(2))
	}
	if lb.Pushes(Join{Type: joinmap.Analog, Number: 2}) != 2 {
		t.Error("analog 2 push count wrong")
	}
}
