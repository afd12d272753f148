package sensor

// Calibration converts a raw analog count into engineering units.
type Calibration func(raw int) float64

// StepCalibration is the coarse three-bucket curve shipped with the pH and
// dissolved oxygen probes: below 50 reads 8, below 100 reads 9, anything
// higher reads 10. Negative counts read 0. The thresholds are placeholders
// and have not been checked against probe datasheets.
func StepCalibration(raw int) float64 {
	switch {
	case raw < 0:
		return 0
	case raw < 50:
		return 8
	case raw < 100:
		return 9
	default:
		return 10
	}
}
