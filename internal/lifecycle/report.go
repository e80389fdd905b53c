package lifecycle

import "time"

// Report summarises one bring-up batch.
type Report struct {
	BatchID  string         `json:"batchId"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
	Ready    int            `json:"ready"`
	Failed   int            `json:"failed"`
	Devices  []DeviceReport `json:"devices"`
}

// DeviceReport is the outcome for one device, in activation order.
type DeviceReport struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	State     State  `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	PostError string `json:"postError,omitempty"`
}

// Device returns the report entry for key.
func (r *Report) Device(key string) (DeviceReport, bool) {
	for _, d := range r.Devices {
		if d.Key == key {
			return d, true
		}
	}
	return DeviceReport{}, false
}
