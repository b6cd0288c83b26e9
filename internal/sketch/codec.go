package sketch

import (
	"fmt"

	"gocv.io/x/gocv"
)

// DefaultJPEGQuality is used when a caller passes a quality outside 1..100.
const DefaultJPEGQuality = 95

// Decode turns encoded image bytes (JPEG, PNG, ...) into a 3-channel BGR Mat.
func Decode(data []byte) (gocv.Mat, error) {
	if len(data) == 0 {
		return gocv.NewMat(), invalidImage("no image data")
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.NewMat(), invalidImage(fmt.Sprintf("failed to decode image: %v", err))
	}
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), invalidImage("decoded image is empty")
	}
	return mat, nil
}

// EncodeJPEG encodes mat as JPEG and copies the bytes out of OpenCV's buffer.
func EncodeJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	if mat.Empty() {
		return nil, invalidImage("cannot encode empty image")
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	encoded := make([]byte, len(buf.GetBytes()))
	copy(encoded, buf.GetBytes())
	return encoded, nil
}
