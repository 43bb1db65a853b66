package pose

import (
	"image"
	"image/color"

	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
	"github.com/pkg/errors"
)

//Canvas is a surface keypoints and skeleton lines are drawn on
type Canvas interface {
	Circle(center image.Point, radius int, c color.RGBA, thickness int)
	Line(pt1, pt2 image.Point, c color.RGBA, thickness int)
}

//Style controls how a person is drawn
type Style struct {
	Radius         int
	Thickness      int
	PointColor     color.RGBA
	LineColor      color.RGBA
	ScoreThreshold float64 //joints scoring at or under it get no circle
	GateLines      bool    //when set, a line is only drawn if both of its joints are visible
}

//DefaultStyle is used by the draw pipeline: every joint scoring above 0 is circled, every skeleton edge is drawn
func DefaultStyle() Style {
	return Style{
		Radius:     utils.DefaultRadius,
		Thickness:  utils.DefaultThickness,
		PointColor: color.RGBA{0, 255, 0, 0},
		LineColor:  color.RGBA{255, 0, 0, 0},
	}
}

//OverlayStyle mirrors the model framework's own visualizer, used by the inference pipeline's optional overlay
func OverlayStyle() Style {
	s := DefaultStyle()
	s.ScoreThreshold = utils.OverlayScoreThreshold
	s.GateLines = true
	return s
}

//Draw plots one person's keypoints and skeleton on c.
//Circles respect the score threshold, lines do not unless style.GateLines is set: with the default style an edge
//touching a hidden joint is still drawn to that joint's coordinate.
func Draw(c Canvas, kps []Keypoint, skel Skeleton, style Style) error {
	if err := skel.Validate(len(kps)); err != nil {
		return errors.Wrap(err, "Draw")
	}

	for _, k := range kps {
		if k.Visible(style.ScoreThreshold) {
			c.Circle(k.Point(), style.Radius, style.PointColor, -1) //thickness -1 == filled circle
		}
	}

	for _, e := range skel {
		k1, k2 := kps[e[0]], kps[e[1]]
		if style.GateLines && !(k1.Visible(style.ScoreThreshold) && k2.Visible(style.ScoreThreshold)) {
			continue
		}
		c.Line(k1.Point(), k2.Point(), style.LineColor, style.Thickness)
	}

	return nil
}

//DrawPeople decodes and draws every record in order, stopping at the first malformed one
func DrawPeople(c Canvas, people []Person, skel Skeleton, style Style) error {
	for i, p := range people {
		kps, err := Decode(p.Keypoints)
		if err != nil {
			return errors.Wrapf(err, "DrawPeople: person %d", i)
		}

		if err := Draw(c, kps, skel, style); err != nil {
			return errors.Wrapf(err, "DrawPeople: person %d", i)
		}
	}

	return nil
}
