package main

import (
	"time"

	"codeberg.org/mutker/eelnode/internal/config"
	"codeberg.org/mutker/eelnode/internal/sensor"
	"codeberg.org/mutker/eelnode/internal/telemetry"
)

// adcSpan covers every bucket of the step calibration.
const adcSpan = 150

func buildSensors(cfg *config.Config) map[telemetry.Metric]sensor.Sensor {
	if cfg.Sensors == config.SensorsHardware {
		hw := cfg.Hardware
		return map[telemetry.Metric]sensor.Sensor{
			telemetry.Temperature: sensor.NewDS18B20(hw.DS18B20ID),
			telemetry.Distance: sensor.NewEchoRanger(
				sensor.NewSysfsPin(hw.TriggerPin),
				sensor.NewSysfsPin(hw.EchoPin),
			),
			telemetry.PH:              sensor.NewPH20(sensor.NewIIOChannel(hw.IIODevice, hw.PHChannel)),
			telemetry.DissolvedOxygen: sensor.NewDO37(sensor.NewIIOChannel(hw.IIODevice, hw.DOChannel)),
		}
	}

	seed := time.Now().UnixNano()
	return map[telemetry.Metric]sensor.Sensor{
		telemetry.Temperature: sensor.NewSimulated(sensor.SimulatedConfig{
			Base: 24, Min: 18, Max: 30, Step: 0.25, FailureRate: 0.01, Seed: seed,
		}),
		telemetry.Distance: sensor.NewSimulated(sensor.SimulatedConfig{
			Base: 60, Min: 2, Max: 400, Step: 3, FailureRate: 0.05, Seed: seed + 1,
		}),
		telemetry.PH:              sensor.NewPH20(sensor.NewSimulatedADC(0, adcSpan, seed+2)),
		telemetry.DissolvedOxygen: sensor.NewDO37(sensor.NewSimulatedADC(0, adcSpan, seed+3)),
	}
}
