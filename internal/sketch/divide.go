package sketch

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// divideBlend computes dst = clamp(round(num*scale/den), 0, 255) per sample.
// Samples with a zero denominator are set to zero instead of failing, so detected
// edges come out as strokes of that value.
func divideBlend(num, den gocv.Mat, scale float64, zero uint8) (gocv.Mat, error) {
	if num.Rows() != den.Rows() || num.Cols() != den.Cols() {
		return gocv.NewMat(), fmt.Errorf("divide: size mismatch %dx%d vs %dx%d", num.Cols(), num.Rows(), den.Cols(), den.Rows())
	}

	numData, err := num.DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("divide: numerator data: %w", err)
	}
	denData, err := den.DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("divide: denominator data: %w", err)
	}

	out := gocv.NewMatWithSize(num.Rows(), num.Cols(), gocv.MatTypeCV8U)
	dst, err := out.DataPtrUint8()
	if err != nil {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("divide: output data: %w", err)
	}

	divideSamples(dst, numData, denData, scale, zero)
	return out, nil
}

func divideSamples(dst, num, den []uint8, scale float64, zero uint8) {
	for i := range dst {
		if den[i] == 0 {
			dst[i] = zero
			continue
		}
		v := math.Round(float64(num[i]) * scale / float64(den[i]))
		switch {
		case v > 255:
			dst[i] = 255
		case v < 0:
			dst[i] = 0
		default:
			dst[i] = uint8(v)
		}
	}
}
