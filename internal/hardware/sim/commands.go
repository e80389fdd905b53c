package sim

import "github.com/nerrad567/gray-logic-io/internal/hardware/models"

// commands holds device-side behaviour for one-shot commands, keyed by
// "model.command".
var commands = map[string]func(e *Endpoint){
	models.GlsPartCn + "." + models.GlsIncreaseSensitivity: func(e *Endpoint) {
		stepSensitivity(e, 1)
	},
	models.GlsPartCn + "." + models.GlsDecreaseSensitivity: func(e *Endpoint) {
		stepSensitivity(e, -1)
	},
}

func stepSensitivity(e *Endpoint, delta int) {
	v := e.Int(models.GlsSensitivity) + delta
	if v < 1 {
		v = 1
	}
	if v > models.GlsSensitivityMax {
		v = models.GlsSensitivityMax
	}
	_ = e.Drive(models.GlsSensitivity, v)
}
