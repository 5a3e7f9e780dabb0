package tone

import (
	"errors"
	"math"
)

const (
	// MaxDB is the level treated as 0 dBFS.
	MaxDB = 80.0
	// SafetyMargin keeps full-scale tones clear of 16-bit rounding overflow.
	SafetyMargin = 0.95
)

// DefaultCalibration is the process-wide reference used by Generate.
var DefaultCalibration = Calibration{MaxDB: MaxDB, SafetyMargin: SafetyMargin}

// Calibration maps dB levels to linear amplitude.
type Calibration struct {
	MaxDB        float64
	SafetyMargin float64
}

// Validate reports whether c can produce in-range samples.
func (c Calibration) Validate() error {
	if math.IsNaN(c.MaxDB) || math.IsInf(c.MaxDB, 0) {
		return errors.New("tone: max_db must be finite")
	}
	if !(c.SafetyMargin > 0 && c.SafetyMargin <= 1) {
		return errors.New("tone: safety margin must be in (0, 1]")
	}
	return nil
}

// Gain converts levelDB to a linear gain in [0, 1] relative to MaxDB.
// Levels above MaxDB clamp to 1; NaN maps to 0.
func (c Calibration) Gain(levelDB float64) float64 {
	if math.IsNaN(levelDB) {
		return 0
	}
	return clamp01(math.Pow(10, (levelDB-c.MaxDB)/20))
}

// Amplitude is Gain scaled by the safety margin: the multiplier applied to
// FullScale when synthesizing.
func (c Calibration) Amplitude(levelDB float64) float64 {
	return c.Gain(levelDB) * c.SafetyMargin
}

// LevelDB inverts Amplitude. Zero or negative amplitude is -Inf.
func (c Calibration) LevelDB(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return c.MaxDB + 20*math.Log10(amplitude/c.SafetyMargin)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
