//Package pose holds the lower-body keypoint model: the fixed joint order, the
//skeleton drawn over it and the flat [x, y, score] encoding the model emits.
package pose

import (
	"image"

	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//JointNames are in the order the model's heatmap channels are laid out.
//Skeleton refers to joints by position in this list, reordering it breaks rendering silently.
var JointNames = [utils.KeypointsNum]string{
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
}

//Edge connects two joints by zero-based index
type Edge [2]int

//Skeleton is the list of joint pairs connected by a line when rendering
type Skeleton []Edge

//LowerBody is the skeleton for the 12 joints in JointNames
var LowerBody = Skeleton{
	{0, 2}, {2, 4}, //left arm
	{1, 3}, {3, 5}, //right arm
	{0, 6}, {1, 7}, //torso (shoulder -> hip)
	{6, 8}, {8, 10}, //left leg
	{7, 9}, {9, 11}, //right leg
}

//Keypoint is one joint as detected by the model
type Keypoint struct {
	X     float64
	Y     float64
	Score float64
}

//Point returns the pixel position, truncating like an integer cast
func (k Keypoint) Point() image.Point {
	return image.Pt(int(k.X), int(k.Y))
}

//Visible returns true when the joint's score is strictly above threshold
func (k Keypoint) Visible(threshold float64) bool {
	return k.Score > threshold
}

//Person is one detection record as written to and read from the per-frame JSON file
type Person struct {
	BBox      []float64 `json:"bbox,omitempty"` //[x, y, w, h] of the region the model ran on
	Keypoints []float64 `json:"keypoints"`      //[x1, y1, score1, x2, y2, score2, ...]
}

//NamedKeypoint is a decoded keypoint labelled with its joint name
type NamedKeypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}
