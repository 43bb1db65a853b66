package pose

import (
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
	"github.com/pkg/errors"
)

//Decode unpacks a flat [x1, y1, score1, ...] array into exactly utils.KeypointsNum keypoints.
//Arrays whose length is not a multiple of 3, or that hold a different number of joints, are rejected.
func Decode(flat []float64) ([]Keypoint, error) {
	if len(flat)%utils.ValuesPerKeypoint != 0 {
		return nil, errors.Wrapf(ErrMalformedRecord, "Decode: %d values is not a multiple of %d", len(flat), utils.ValuesPerKeypoint)
	}

	n := len(flat) / utils.ValuesPerKeypoint
	if n != utils.KeypointsNum {
		return nil, errors.Wrapf(ErrMalformedRecord, "Decode: got %d keypoints, want %d", n, utils.KeypointsNum)
	}

	kps := make([]Keypoint, n)
	for i := range kps {
		kps[i] = Keypoint{
			X:     flat[i*utils.ValuesPerKeypoint],
			Y:     flat[i*utils.ValuesPerKeypoint+1],
			Score: flat[i*utils.ValuesPerKeypoint+2],
		}
	}

	return kps, nil
}

//Encode is the inverse of Decode
func Encode(kps []Keypoint) []float64 {
	flat := make([]float64, 0, len(kps)*utils.ValuesPerKeypoint)
	for _, k := range kps {
		flat = append(flat, k.X, k.Y, k.Score)
	}

	return flat
}

//Name labels decoded keypoints with their joint names
func Name(kps []Keypoint) []NamedKeypoint {
	named := make([]NamedKeypoint, len(kps))
	for i, k := range kps {
		named[i] = NamedKeypoint{X: k.X, Y: k.Y, Score: k.Score}
		if i < len(JointNames) {
			named[i].Name = JointNames[i]
		}
	}

	return named
}

//Validate checks every edge references a joint index in [0, n)
func (s Skeleton) Validate(n int) error {
	for i, e := range s {
		for _, j := range e {
			if j < 0 || j >= n {
				return errors.Wrapf(ErrMalformedRecord, "Skeleton: edge %d (%d, %d) is out of range for %d joints", i, e[0], e[1], n)
			}
		}
	}

	return nil
}
