package sketch

import (
	"errors"
	"fmt"
)

const (
	// DefaultKernelSize is the side of the square Gaussian kernel.
	DefaultKernelSize = 5
	// DefaultLowThreshold is the lower hysteresis threshold of the edge detector.
	DefaultLowThreshold = 30
	// DefaultHighThreshold is the upper hysteresis threshold of the edge detector.
	DefaultHighThreshold = 70
	// DefaultScale multiplies the greyscale sample before the divide-blend.
	DefaultScale = 256.0
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid sketch parameters")

// Params holds the stage constants of the pipeline.
// Sigma 0 derives the Gaussian sigma from the kernel size.
// ZeroDivisor is written wherever the inverted edge map is zero, i.e. on detected edges.
// The default 0 draws edges as black strokes like OpenCV's divide; 255 gives the
// saturating convention where a zero divisor yields white.
type Params struct {
	KernelSize    int     `yaml:"kernel_size"`
	Sigma         float64 `yaml:"sigma"`
	LowThreshold  float32 `yaml:"low_threshold"`
	HighThreshold float32 `yaml:"high_threshold"`
	Scale         float64 `yaml:"scale"`
	ZeroDivisor   uint8   `yaml:"zero_divisor"`
}

// DefaultParams returns the baseline parameters.
func DefaultParams() Params {
	return Params{
		KernelSize:    DefaultKernelSize,
		Sigma:         0,
		LowThreshold:  DefaultLowThreshold,
		HighThreshold: DefaultHighThreshold,
		Scale:         DefaultScale,
		ZeroDivisor:   0,
	}
}

// Validate reports whether the parameters can drive the pipeline.
func (p Params) Validate() error {
	if p.KernelSize <= 0 || p.KernelSize%2 == 0 {
		return fmt.Errorf("%w: kernel size must be odd and positive, got %d", ErrInvalidParams, p.KernelSize)
	}
	if p.Sigma < 0 {
		return fmt.Errorf("%w: sigma must not be negative, got %g", ErrInvalidParams, p.Sigma)
	}
	if p.LowThreshold < 0 || p.HighThreshold < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidParams)
	}
	if p.LowThreshold > p.HighThreshold {
		return fmt.Errorf("%w: low threshold %g above high threshold %g", ErrInvalidParams, p.LowThreshold, p.HighThreshold)
	}
	if p.Scale <= 0 {
		return fmt.Errorf("%w: scale must be positive, got %g", ErrInvalidParams, p.Scale)
	}
	return nil
}
