//Package dnn runs an exported top-down heatmap network through OpenCV's DNN
//module. Importing it registers the "dnn" backend with package model.
package dnn

import (
	"context"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/pose-overlay/pkg/model"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//Backend is the name this package registers under
const Backend = "dnn"

//network input, height x width, as exported from the 256x192 training config
const (
	inputWidth  = 192
	inputHeight = 256
)

//ImageNet normalisation folded into BlobFromImage: (pixel - mean) * scale, scale ~ 1/std
var (
	inputMean  = gocv.NewScalar(123.675, 116.28, 103.53, 0)
	inputScale = 1.0 / 57.375
)

//networkDescriptions are config extensions OpenCV reads alongside the weights; anything else (e.g. the
//framework's .py config) is not passed to ReadNet
var networkDescriptions = []string{".pbtxt", ".prototxt", ".cfg", ".xml"}

func init() {
	model.Register(Backend, Load)
}

type net struct {
	mu     sync.Mutex
	net    gocv.Net
	logger *zap.Logger
}

//matImage is implemented by frames that already hold decoded pixels
type matImage interface {
	Mat() gocv.Mat
}

//Load reads the network from opts.Checkpoint (ONNX, TensorFlow, ...) and selects the device
func Load(_ context.Context, opts model.Options) (model.Model, error) {
	n := gocv.ReadNet(opts.Checkpoint, networkDescription(opts.Config))
	if n.Empty() {
		return nil, errors.Errorf("Load: could not load network '%s'", opts.Checkpoint)
	}

	backend, target := preferredTarget(opts.Device)
	n.SetPreferableBackend(backend)
	n.SetPreferableTarget(target)

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("dnn network loaded", zap.String("checkpoint", opts.Checkpoint), zap.String("device", opts.Device))

	return &net{net: n, logger: logger}, nil
}

func networkDescription(config string) string {
	if utils.InSlice(strings.ToLower(filepath.Ext(config)), networkDescriptions) {
		return config
	}
	return ""
}

func preferredTarget(device string) (gocv.NetBackendType, gocv.NetTargetType) {
	if strings.HasPrefix(strings.ToLower(device), "cuda") {
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	return gocv.NetBackendDefault, gocv.NetTargetCPU
}

//Infer crops region out of the frame, runs the network and takes the peak of each joint's heatmap
func (n *net) Infer(ctx context.Context, img model.Image, region model.Region) ([]pose.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var frame gocv.Mat
	if m, ok := img.(matImage); ok {
		frame = m.Mat()
	} else {
		frame = gocv.IMRead(img.Path(), gocv.IMReadColor)
		defer frame.Close()
	}
	if frame.Empty() {
		return nil, errors.Errorf("Infer: could not decode image '%s'", img.Path())
	}

	rect := region.Rect(frame.Cols(), frame.Rows())
	if rect.Empty() {
		return nil, errors.Errorf("Infer: region %v is outside '%s'", region.XYWH(), img.Path())
	}

	roi := frame.Region(rect)
	defer roi.Close()

	blob := gocv.BlobFromImage(roi, inputScale, image.Pt(inputWidth, inputHeight), inputMean, true, false)
	defer blob.Close()

	n.mu.Lock()
	n.net.SetInput(blob, "")
	prob := n.net.Forward("")
	n.mu.Unlock()
	defer prob.Close()

	s := prob.Size()
	if len(s) != 4 || s[1] < utils.KeypointsNum {
		return nil, errors.Errorf("Infer: unexpected network output shape %v, want [1 %d H W]", s, utils.KeypointsNum)
	}
	h, w := s[2], s[3]

	kps := make([]pose.Keypoint, utils.KeypointsNum)
	for i := range kps {
		heatmap, err := prob.FromPtr(h, w, gocv.MatTypeCV32F, 0, i)
		if err != nil {
			return nil, errors.Wrapf(err, "Infer: heatmap %d", i)
		}

		_, conf, _, pt := gocv.MinMaxLoc(heatmap)
		heatmap.Close()

		kps[i] = toFrame(pt, float64(conf), w, h, rect)
	}

	n.logger.Debug("dnn inference", zap.String("image", img.Path()), zap.Ints("shape", s))

	return []pose.Person{{BBox: region.XYWH(), Keypoints: pose.Encode(kps)}}, nil
}

//toFrame maps a heatmap cell back to frame pixels, using the cell's centre
func toFrame(pt image.Point, score float64, heatmapW, heatmapH int, rect image.Rectangle) pose.Keypoint {
	sx := float64(rect.Dx()) / float64(heatmapW)
	sy := float64(rect.Dy()) / float64(heatmapH)
	return pose.Keypoint{
		X:     float64(rect.Min.X) + (float64(pt.X)+0.5)*sx,
		Y:     float64(rect.Min.Y) + (float64(pt.Y)+0.5)*sy,
		Score: score,
	}
}

func (n *net) Close() error {
	return n.net.Close()
}
