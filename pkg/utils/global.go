package utils

//KeypointsNum is the number of joints in the lower-body skeleton (shoulders and below)
const KeypointsNum = 12

//ValuesPerKeypoint is the length of one flat keypoint entry: x, y, score
const ValuesPerKeypoint = 3

//ResultExt is the extension of per-frame inference results
const ResultExt = ".json"

//AnnotatedExt is the extension every annotated frame is saved with, regardless of the source extension
const AnnotatedExt = ".jpg"

//ImageExts are the source frame extensions, in the order they are tried when pairing a result with its frame
var ImageExts = []string{".jpg", ".png"}

//DefaultRadius is the default keypoint circle radius in pixels
const DefaultRadius = 4

//DefaultThickness is the default skeleton line thickness in pixels
const DefaultThickness = 2

//OverlayScoreThreshold is the joint confidence under which the inference overlay hides a joint
const OverlayScoreThreshold = 0.3

//BBoxScoreThreshold is passed to the model with the whole-frame box
const BBoxScoreThreshold = 0.0

//BBoxScore is the confidence attached to the whole-frame box. The framework keeps boxes scoring strictly above
//BBoxScoreThreshold, so this must stay above it for the box to always be accepted.
const BBoxScore = 1.0
