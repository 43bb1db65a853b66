package pose_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

type line struct{ from, to image.Point }

type recordingCanvas struct {
	circles []image.Point
	lines   []line
}

func (r *recordingCanvas) Circle(center image.Point, radius int, c color.RGBA, thickness int) {
	r.circles = append(r.circles, center)
}

func (r *recordingCanvas) Line(pt1, pt2 image.Point, c color.RGBA, thickness int) {
	r.lines = append(r.lines, line{pt1, pt2})
}

//flatPerson returns 12 joints at (10*(i+1), 10*(i+1)) with score 0.9
func flatPerson() []float64 {
	flat := make([]float64, 0, utils.KeypointsNum*utils.ValuesPerKeypoint)
	for i := 0; i < utils.KeypointsNum; i++ {
		v := float64(10 * (i + 1))
		flat = append(flat, v, v, 0.9)
	}
	return flat
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	flat := flatPerson()
	flat[5] = -1
	flat[33] = 12.75

	kps, err := pose.Decode(flat)
	require.NoError(t, err)
	require.Len(t, kps, utils.KeypointsNum)
	assert.Equal(t, pose.Keypoint{X: 20, Y: 20, Score: -1}, kps[1])
	assert.Equal(t, pose.Keypoint{X: 120, Y: 120, Score: 12.75}, kps[11])
	assert.Equal(t, flat, pose.Encode(kps))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string][]float64{
		"not a multiple of 3": flatPerson()[:35],
		"too few joints":      flatPerson()[:33],
		"too many joints":     append(flatPerson(), 1, 2, 3),
		"empty":               {},
	}

	for name, flat := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pose.Decode(flat)
			assert.True(t, errors.Is(err, pose.ErrMalformedRecord), "got %v", err)
		})
	}
}

func TestKeypointPointTruncates(t *testing.T) {
	assert.Equal(t, image.Pt(10, 20), pose.Keypoint{X: 10.9, Y: 20.2}.Point())
}

func TestLowerBodySkeletonIndices(t *testing.T) {
	require.Len(t, pose.LowerBody, 10)
	for _, e := range pose.LowerBody {
		for _, j := range e {
			assert.True(t, j >= 0 && j < utils.KeypointsNum, "edge %v", e)
		}
	}
	assert.NoError(t, pose.LowerBody.Validate(utils.KeypointsNum))
	assert.Len(t, pose.JointNames, utils.KeypointsNum)
}

func TestSkeletonValidate(t *testing.T) {
	err := pose.Skeleton{{0, 12}}.Validate(utils.KeypointsNum)
	assert.True(t, errors.Is(err, pose.ErrMalformedRecord))
	assert.Error(t, pose.Skeleton{{-1, 0}}.Validate(utils.KeypointsNum))
}

func TestDrawVisibilityGating(t *testing.T) {
	flat := flatPerson()
	flat[0], flat[1], flat[2] = 10, 10, 0.9
	flat[3], flat[4], flat[5] = 20, 20, -1
	flat[8] = 0 //joint 2 scores exactly 0, also hidden

	kps, err := pose.Decode(flat)
	require.NoError(t, err)

	c := &recordingCanvas{}
	require.NoError(t, pose.Draw(c, kps, pose.LowerBody, pose.DefaultStyle()))

	assert.Len(t, c.circles, utils.KeypointsNum-2)
	assert.Contains(t, c.circles, image.Pt(10, 10))
	assert.NotContains(t, c.circles, image.Pt(20, 20))
	assert.NotContains(t, c.circles, image.Pt(30, 30))

	//every edge is drawn, including (1,3) and (1,7) that touch the hidden joint 1
	require.Len(t, c.lines, len(pose.LowerBody))
	assert.Contains(t, c.lines, line{image.Pt(20, 20), image.Pt(40, 40)})
	assert.Contains(t, c.lines, line{image.Pt(20, 20), image.Pt(80, 80)})
}

func TestDrawOverlayStyleGatesLines(t *testing.T) {
	flat := flatPerson()
	flat[5] = 0.3 //joint 1 sits on the threshold

	kps, err := pose.Decode(flat)
	require.NoError(t, err)

	c := &recordingCanvas{}
	require.NoError(t, pose.Draw(c, kps, pose.LowerBody, pose.OverlayStyle()))

	assert.Len(t, c.circles, utils.KeypointsNum-1)
	assert.Len(t, c.lines, len(pose.LowerBody)-2)
	assert.NotContains(t, c.lines, line{image.Pt(20, 20), image.Pt(40, 40)})
}

func TestDrawRejectsShortKeypoints(t *testing.T) {
	kps := make([]pose.Keypoint, 6)
	err := pose.Draw(&recordingCanvas{}, kps, pose.LowerBody, pose.DefaultStyle())
	assert.True(t, errors.Is(err, pose.ErrMalformedRecord))
}

func TestDrawPeopleStopsAtMalformedRecord(t *testing.T) {
	c := &recordingCanvas{}
	people := []pose.Person{
		{Keypoints: flatPerson()},
		{Keypoints: flatPerson()[:30]},
	}

	err := pose.DrawPeople(c, people, pose.LowerBody, pose.DefaultStyle())
	assert.True(t, errors.Is(err, pose.ErrMalformedRecord))
	assert.Len(t, c.circles, utils.KeypointsNum)
}

func TestName(t *testing.T) {
	kps, err := pose.Decode(flatPerson())
	require.NoError(t, err)

	named := pose.Name(kps)
	require.Len(t, named, utils.KeypointsNum)
	assert.Equal(t, "left_shoulder", named[0].Name)
	assert.Equal(t, "right_ankle", named[11].Name)
	assert.Equal(t, 120.0, named[11].X)
}
