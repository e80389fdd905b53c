package models

import "github.com/nerrad567/gray-logic-io/internal/hardware"

// Versiport IO modules (C2N-IO, DIN-IO8).
const (
	C2nIo  = "c2nio"
	DinIo8 = "dinio8"

	// VersiportDigitalIn and VersiportAnalogIn are point bases; see Indexed.
	VersiportDigitalIn = "DigitalIn"
	VersiportAnalogIn  = "AnalogIn"

	VersiportDigitalInEventID hardware.EventID = 1
	VersiportAnalogInEventID  hardware.EventID = 2
)

// DIN-8SW8 switched load module.
const (
	Din8Sw8 = "din8sw8"

	Din8Sw8Load = "Load"

	Din8Sw8LoadEventID hardware.EventID = 1
)

// C3RY16 relay card.
const (
	C3Ry16 = "c3ry16"

	C3Ry16Relay = "Relay"

	C3Ry16RelayEventID hardware.EventID = 1
)

// CEN-IO-COM-102 serial port module.
const (
	CenIoCom102 = "ceniocom102"

	// ComRx and ComTx are point bases: Com1Rx, Com2Tx, ...
	ComRx = "Rx"
	ComTx = "Tx"

	ComRxEventID hardware.EventID = 1
)

// CEN-IO-DIGIN-104 digital input module.
const (
	CenIoDigIn104 = "ceniodigin104"

	DigInInput = "DigitalInput"

	DigInInputEventID hardware.EventID = 1
)

// Port counts per model.
const (
	C2nIoPorts       = 2
	DinIo8Ports      = 8
	Din8Sw8Loads     = 8
	C3Ry16Relays     = 16
	CenIoComPorts    = 2
	CenIoDigIn104Ins = 4
)

// ComPoint returns the Rx or Tx point name for COM port n.
func ComPoint(n int, dir string) string {
	return Indexed("Com", n) + dir
}

func versiports(count int) []Point {
	points := repeated(VersiportDigitalIn, count, hardware.PointBool, VersiportDigitalInEventID, false)
	return append(points, repeated(VersiportAnalogIn, count, hardware.PointInt, VersiportAnalogInEventID, false)...)
}

func init() {
	register(Spec{
		Model:      C2nIo,
		Transports: []hardware.Transport{hardware.TransportCresnet},
		Points:     versiports(C2nIoPorts),
	})
	register(Spec{
		Model:      DinIo8,
		Transports: []hardware.Transport{hardware.TransportCresnet},
		Points:     versiports(DinIo8Ports),
	})
	register(Spec{
		Model:      Din8Sw8,
		Transports: []hardware.Transport{hardware.TransportCresnet},
		Points:     repeated(Din8Sw8Load, Din8Sw8Loads, hardware.PointBool, Din8Sw8LoadEventID, true),
	})
	register(Spec{
		Model:      C3Ry16,
		Transports: []hardware.Transport{hardware.TransportCardSlot},
		Points:     repeated(C3Ry16Relay, C3Ry16Relays, hardware.PointBool, C3Ry16RelayEventID, true),
	})

	com := make([]Point, 0, 2*CenIoComPorts)
	for i := 1; i <= CenIoComPorts; i++ {
		com = append(com,
			Point{Name: ComPoint(i, ComRx), Kind: hardware.PointString, Event: hardware.Event{ID: ComRxEventID, Index: uint32(i)}}, //nolint:gosec // port count
			Point{Name: ComPoint(i, ComTx), Kind: hardware.PointString, Writable: true},
		)
	}
	register(Spec{
		Model:      CenIoCom102,
		Transports: []hardware.Transport{hardware.TransportIP},
		Points:     com,
	})

	register(Spec{
		Model:      CenIoDigIn104,
		Transports: []hardware.Transport{hardware.TransportIP},
		Points:     repeated(DigInInput, CenIoDigIn104Ins, hardware.PointBool, DigInInputEventID, false),
	})
}
