//Package frame reads, draws on and writes still images with OpenCV.
package frame

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

//Frame is a decoded image together with the path it was read from
type Frame struct {
	path string
	mat  gocv.Mat
}

//Read loads an image from disk as BGR. An unreadable or corrupt file is an error, not an empty frame.
func Read(path string) (*Frame, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, errors.Errorf("Read: could not decode image '%s'", path)
	}

	return &Frame{path: path, mat: mat}, nil
}

//FromMat wraps an existing Mat, the frame takes ownership of it
func FromMat(path string, mat gocv.Mat) *Frame {
	return &Frame{path: path, mat: mat}
}

//Path returns the file the frame was read from
func (f *Frame) Path() string {
	return f.path
}

//Size returns the frame's width and height in pixels
func (f *Frame) Size() (int, int) {
	return f.mat.Cols(), f.mat.Rows()
}

//Mat exposes the underlying OpenCV matrix
func (f *Frame) Mat() gocv.Mat {
	return f.mat
}

//Circle draws a circle, thickness -1 == filled circle
func (f *Frame) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	gocv.Circle(&f.mat, center, radius, c, thickness)
}

//Line draws a straight line between two points
func (f *Frame) Line(pt1, pt2 image.Point, c color.RGBA, thickness int) {
	gocv.Line(&f.mat, pt1, pt2, c, thickness)
}

//Write encodes the frame to path, the format follows path's extension
func (f *Frame) Write(path string) error {
	if ok := gocv.IMWrite(path, f.mat); !ok {
		return errors.Errorf("Write: could not write image '%s'", path)
	}

	return nil
}

//Close releases the underlying Mat
func (f *Frame) Close() error {
	return f.mat.Close()
}
