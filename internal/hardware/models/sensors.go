package models

import "github.com/nerrad567/gray-logic-io/internal/hardware"

// GLS-PART-CN partition sensor.
const (
	GlsPartCn = "glspartcn"

	GlsEnable             = "Enable"
	GlsPartitionSensed    = "PartitionSensed"
	GlsPartitionNotSensed = "PartitionNotSensed"
	GlsSensitivity        = "Sensitivity"

	GlsIncreaseSensitivity = "IncreaseSensitivity"
	GlsDecreaseSensitivity = "DecreaseSensitivity"

	GlsEnableEventID             hardware.EventID = 1
	GlsPartitionSensedEventID    hardware.EventID = 2
	GlsPartitionNotSensedEventID hardware.EventID = 3
	GlsSensitivityEventID        hardware.EventID = 4

	// GlsSensitivityMax is the highest sensitivity step the sensor accepts.
	GlsSensitivityMax = 10
)

// C2N-RTHS temperature/humidity sensor.
const (
	C2nRths = "c2nrths"

	RthsTemperature       = "Temperature"
	RthsHumidity          = "Humidity"
	RthsTemperatureFormat = "TemperatureFormat"

	RthsTemperatureEventID hardware.EventID = 1
	RthsHumidityEventID    hardware.EventID = 2
)

func init() {
	register(Spec{
		Model:      GlsPartCn,
		Transports: []hardware.Transport{hardware.TransportCresnet},
		Points: []Point{
			{Name: GlsEnable, Kind: hardware.PointBool, Event: hardware.Event{ID: GlsEnableEventID}, Writable: true},
			{Name: GlsPartitionSensed, Kind: hardware.PointBool, Event: hardware.Event{ID: GlsPartitionSensedEventID}},
			{Name: GlsPartitionNotSensed, Kind: hardware.PointBool, Event: hardware.Event{ID: GlsPartitionNotSensedEventID}},
			{Name: GlsSensitivity, Kind: hardware.PointInt, Event: hardware.Event{ID: GlsSensitivityEventID}, Writable: true},
		},
		Commands: []string{GlsIncreaseSensitivity, GlsDecreaseSensitivity},
	})

	register(Spec{
		Model:      C2nRths,
		Transports: []hardware.Transport{hardware.TransportCresnet},
		Points: []Point{
			{Name: RthsTemperature, Kind: hardware.PointInt, Event: hardware.Event{ID: RthsTemperatureEventID}},
			{Name: RthsHumidity, Kind: hardware.PointInt, Event: hardware.Event{ID: RthsHumidityEventID}},
			// Format changes are reported with the temperature event.
			{Name: RthsTemperatureFormat, Kind: hardware.PointBool, Event: hardware.Event{ID: RthsTemperatureEventID}, Writable: true},
		},
	})
}
