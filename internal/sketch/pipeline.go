package sketch

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Pipeline turns a BGR frame into a pencil-sketch style greyscale frame.
// It holds no mutable state; one Pipeline may be shared by any number of goroutines.
type Pipeline struct {
	params Params
}

// New validates params and returns a Pipeline using them.
func New(params Params) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{params: params}, nil
}

// Default returns a Pipeline with DefaultParams.
func Default() *Pipeline {
	return &Pipeline{params: DefaultParams()}
}

// Params returns a copy of the pipeline parameters.
func (p *Pipeline) Params() Params {
	return p.params
}

// Sketch runs the five filtering stages on img and returns a new single-channel Mat
// with the same rows and cols. The caller must Close the result.
func (p *Pipeline) Sketch(img gocv.Mat) (gocv.Mat, error) {
	if err := validateInput(img); err != nil {
		return gocv.NewMat(), err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(img, &gray, gocv.ColorBGRToGray); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image to grayscale: %w", err)
	}

	inverted := gocv.NewMat()
	defer inverted.Close()
	if err := gocv.BitwiseNot(gray, &inverted); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to invert grayscale: %w", err)
	}

	ksize := image.Pt(p.params.KernelSize, p.params.KernelSize)

	blurred := gocv.NewMat()
	defer blurred.Close()
	if err := gocv.GaussianBlur(inverted, &blurred, ksize, p.params.Sigma, p.params.Sigma, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to blur inverted image: %w", err)
	}

	invertedBlurred := gocv.NewMat()
	defer invertedBlurred.Close()
	if err := gocv.BitwiseNot(blurred, &invertedBlurred); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to invert blurred image: %w", err)
	}

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	if err := gocv.GaussianBlur(invertedBlurred, &smoothed, ksize, p.params.Sigma, p.params.Sigma, gocv.BorderDefault); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to blur image: %w", err)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(smoothed, &edges, p.params.LowThreshold, p.params.HighThreshold); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to detect edges: %w", err)
	}

	invertedEdges := gocv.NewMat()
	defer invertedEdges.Close()
	if err := gocv.BitwiseNot(edges, &invertedEdges); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to invert edges: %w", err)
	}

	return divideBlend(gray, invertedEdges, p.params.Scale, p.params.ZeroDivisor)
}

// SketchBytes decodes an encoded image, sketches it and returns the result as JPEG
// together with its dimensions.
func (p *Pipeline) SketchBytes(data []byte, quality int) ([]byte, image.Point, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer img.Close()

	out, err := p.Sketch(img)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer out.Close()

	encoded, err := EncodeJPEG(out, quality)
	if err != nil {
		return nil, image.Point{}, err
	}
	return encoded, image.Pt(out.Cols(), out.Rows()), nil
}

func validateInput(img gocv.Mat) error {
	if img.Empty() {
		return invalidImage("image is empty")
	}
	if img.Rows() <= 0 || img.Cols() <= 0 {
		return invalidImage(fmt.Sprintf("image has zero dimension %dx%d", img.Cols(), img.Rows()))
	}
	if img.Channels() != 3 {
		return invalidImage(fmt.Sprintf("expected 3 channels, got %d", img.Channels()))
	}
	if img.Type() != gocv.MatTypeCV8UC3 {
		return invalidImage(fmt.Sprintf("expected 8-bit samples, got mat type %v", img.Type()))
	}
	return nil
}
