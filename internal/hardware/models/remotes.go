package models

import "github.com/nerrad567/gray-logic-io/internal/hardware"

// HR-series RF remotes.
const (
	Hr100 = "hr100"
	Hr150 = "hr150"
	Hr310 = "hr310"

	HrBatteryCritical = "BatteryCritical"
	HrBatteryLow      = "BatteryLow"
	HrBatteryVoltage  = "BatteryVoltage"

	HrBatteryCriticalEventID hardware.EventID = 1
	HrBatteryLowEventID      hardware.EventID = 2
	HrBatteryVoltageEventID  hardware.EventID = 3
	HrButtonEventID          hardware.EventID = 10
)

// Button names per remote, in hardware index order (index = position + 1).
var (
	Hr100Buttons = []string{"Power", "Custom1", "Custom2", "Custom3", "Custom4"}

	Hr150Buttons = []string{
		"Power", "Up", "Down", "Left", "Right", "Enter",
		"Custom1", "Custom2", "Custom3", "Custom4", "VolumeUp", "VolumeDown",
	}

	Hr310Buttons = []string{
		"Power", "Home", "Menu", "Guide", "Exit", "Up", "Down", "Left", "Right", "Enter",
		"VolumeUp", "VolumeDown", "ChannelUp", "ChannelDown", "Mute", "Favorite", "Clear",
		"Custom5", "Custom6", "Custom9",
	}
)

// Buttons returns the button names of a remote model.
func Buttons(model string) []string {
	switch model {
	case Hr100:
		return Hr100Buttons
	case Hr150:
		return Hr150Buttons
	case Hr310:
		return Hr310Buttons
	default:
		return nil
	}
}

func remote(model string, buttons []string) Spec {
	points := []Point{
		{Name: HrBatteryCritical, Kind: hardware.PointBool, Event: hardware.Event{ID: HrBatteryCriticalEventID}},
		{Name: HrBatteryLow, Kind: hardware.PointBool, Event: hardware.Event{ID: HrBatteryLowEventID}},
		{Name: HrBatteryVoltage, Kind: hardware.PointInt, Event: hardware.Event{ID: HrBatteryVoltageEventID}},
	}
	for i, name := range buttons {
		points = append(points, Point{
			Name:  name,
			Kind:  hardware.PointBool,
			Event: hardware.Event{ID: HrButtonEventID, Index: uint32(i + 1)}, //nolint:gosec // button count
		})
	}
	return Spec{
		Model:      model,
		Transports: []hardware.Transport{hardware.TransportRF},
		Points:     points,
	}
}

func init() {
	register(remote(Hr100, Hr100Buttons))
	register(remote(Hr150, Hr150Buttons))
	register(remote(Hr310, Hr310Buttons))
}
