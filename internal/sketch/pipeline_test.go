package sketch

import (
	"errors"
	"math"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

const squareSize = 40

// newBGR builds a 3-channel image whose three channels all carry value(row, col).
func newBGR(t *testing.T, rows, cols int, value func(row, col int) uint8) gocv.Mat {
	t.Helper()

	data := make([]byte, rows*cols*3)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := value(r, c)
			i := (r*cols + c) * 3
			data[i], data[i+1], data[i+2] = v, v, v
		}
	}

	view, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	defer view.Close()

	owned := view.Clone()
	runtime.KeepAlive(data)
	return owned
}

func uniform(v uint8) func(int, int) uint8 {
	return func(int, int) uint8 { return v }
}

func checkerboard(light, dark uint8) func(int, int) uint8 {
	return func(r, c int) uint8 {
		if (r/squareSize+c/squareSize)%2 == 0 {
			return light
		}
		return dark
	}
}

// boundaryDistance is the distance of x from the nearest square boundary strictly inside the frame.
func boundaryDistance(x, size int) int {
	best := math.MaxInt32
	for b := squareSize; b < size; b += squareSize {
		d := x - b
		if x < b {
			d = b - 1 - x
		}
		if d < best {
			best = d
		}
	}
	return best
}

func sketchOf(t *testing.T, p *Pipeline, img gocv.Mat) ([]byte, gocv.Mat) {
	t.Helper()

	out, err := p.Sketch(img)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })

	data, err := out.DataPtrUint8()
	require.NoError(t, err)
	return data, out
}

func TestSketch_MidGreyScenario(t *testing.T) {
	img := newBGR(t, 100, 100, uniform(128))
	defer img.Close()

	data, out := sketchOf(t, Default(), img)

	assert.Equal(t, 100, out.Rows())
	assert.Equal(t, 100, out.Cols())
	assert.Equal(t, 1, out.Channels())

	expected := uint8(math.Round(128 * DefaultScale / 255))
	for i, v := range data {
		if v != expected {
			t.Fatalf("sample %d = %d, expected uniform %d", i, v, expected)
		}
	}
}

func TestSketch_UniformWhiteSaturates(t *testing.T) {
	img := newBGR(t, 64, 48, uniform(255))
	defer img.Close()

	data, _ := sketchOf(t, Default(), img)
	for i, v := range data {
		if v != 255 {
			t.Fatalf("sample %d = %d, expected 255", i, v)
		}
	}
}

func TestSketch_ShapePreserved(t *testing.T) {
	sizes := []struct{ rows, cols int }{
		{1, 1},
		{3, 7},
		{120, 160},
		{241, 33},
	}

	for _, size := range sizes {
		img := newBGR(t, size.rows, size.cols, func(r, c int) uint8 { return uint8((r*7 + c*13) % 256) })
		out, err := Default().Sketch(img)
		require.NoError(t, err)

		assert.Equal(t, size.rows, out.Rows())
		assert.Equal(t, size.cols, out.Cols())
		assert.Equal(t, 1, out.Channels())
		assert.Equal(t, gocv.MatTypeCV8U, out.Type())

		out.Close()
		img.Close()
	}
}

func TestSketch_Deterministic(t *testing.T) {
	img := newBGR(t, 160, 160, checkerboard(200, 100))
	defer img.Close()

	p := Default()
	first, _ := sketchOf(t, p, img)
	second, _ := sketchOf(t, p, img)

	assert.Equal(t, first, second)
}

func TestSketch_CheckerboardScenario(t *testing.T) {
	const size = 160
	const light, dark = 200, 100

	img := newBGR(t, size, size, checkerboard(light, dark))
	defer img.Close()

	data, _ := sketchOf(t, Default(), img)
	at := func(r, c int) uint8 { return data[r*size+c] }

	lightOut := uint8(math.Round(light * DefaultScale / 255))
	darkOut := uint8(math.Round(dark * DefaultScale / 255))

	// Interiors keep the scaled greyscale value.
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if boundaryDistance(r, size) < 6 || boundaryDistance(c, size) < 6 {
				continue
			}
			want := lightOut
			if checkerboard(light, dark)(r, c) == dark {
				want = darkOut
			}
			if at(r, c) != want {
				t.Fatalf("interior (%d,%d) = %d, expected %d", r, c, at(r, c), want)
			}
		}
	}

	// Every vertical boundary crossed at mid-square height carries a dark stroke.
	for r := squareSize / 2; r < size; r += squareSize {
		for b := squareSize; b < size; b += squareSize {
			stroke := uint8(255)
			for c := b - 3; c <= b+2; c++ {
				if at(r, c) < stroke {
					stroke = at(r, c)
				}
			}
			assert.Equalf(t, uint8(0), stroke, "no stroke at row %d boundary %d", r, b)
		}
	}

	// Strokes only appear next to square boundaries.
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if at(r, c) != 0 {
				continue
			}
			near := boundaryDistance(r, size) <= 3 || boundaryDistance(c, size) <= 3
			assert.Truef(t, near, "stroke at (%d,%d) away from any boundary", r, c)
		}
	}
}

func TestSketch_ZeroDivisorParam(t *testing.T) {
	params := DefaultParams()
	params.ZeroDivisor = 255
	p, err := New(params)
	require.NoError(t, err)

	img := newBGR(t, 160, 160, checkerboard(200, 100))
	defer img.Close()

	data, _ := sketchOf(t, p, img)
	for i, v := range data {
		if v < 100 {
			t.Fatalf("sample %d = %d, expected no strokes below the dark square value", i, v)
		}
	}
}

func TestSketch_InvalidInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	single := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8U)
	defer single.Close()

	float3 := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV32FC3)
	defer float3.Close()

	four := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC4)
	defer four.Close()

	tests := []struct {
		name string
		img  gocv.Mat
	}{
		{"empty", empty},
		{"single channel", single},
		{"float samples", float3},
		{"four channels", four},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Default().Sketch(tt.img)
			defer out.Close()

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidImage))

			var invalid *InvalidImageError
			assert.True(t, errors.As(err, &invalid))
			assert.True(t, out.Empty())
		})
	}
}

func TestSketch_ConcurrentCallers(t *testing.T) {
	img := newBGR(t, 120, 120, checkerboard(230, 40))
	defer img.Close()

	p := Default()
	baseline, _ := sketchOf(t, p, img)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			local := img.Clone()
			defer local.Close()

			out, err := p.Sketch(local)
			if err != nil {
				t.Errorf("worker %d: %v", idx, err)
				return
			}
			defer out.Close()
			results[idx] = out.ToBytes()
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		assert.Equalf(t, baseline, res, "worker %d diverged", i)
	}
}

func TestSketchBytes(t *testing.T) {
	img := newBGR(t, 80, 120, checkerboard(220, 60))
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	require.NoError(t, err)
	encoded := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	jpeg, size, err := Default().SketchBytes(encoded, 90)
	require.NoError(t, err)
	assert.Equal(t, 120, size.X)
	assert.Equal(t, 80, size.Y)

	decoded, err := gocv.IMDecode(jpeg, gocv.IMReadUnchanged)
	require.NoError(t, err)
	defer decoded.Close()

	assert.Equal(t, 80, decoded.Rows())
	assert.Equal(t, 120, decoded.Cols())
	assert.Equal(t, 1, decoded.Channels())
}

func TestSketchBytes_Garbage(t *testing.T) {
	_, _, err := Default().SketchBytes([]byte("definitely not an image"), 90)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, _, err = Default().SketchBytes(nil, 90)
	assert.ErrorIs(t, err, ErrInvalidImage)
}
