package dnn

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/chenBenjamin97/pose-overlay/pkg/model"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, model.Backends(), Backend)
	assert.Contains(t, model.Backends(), model.WorkerBackend)
}

func TestToFrame(t *testing.T) {
	//48x64 heatmap over a 192x256 region starting at (10, 20): 4 pixels per cell
	kp := toFrame(image.Pt(0, 0), 0.8, 48, 64, image.Rect(10, 20, 202, 276))
	assert.InDelta(t, 12.0, kp.X, 1e-9)
	assert.InDelta(t, 22.0, kp.Y, 1e-9)
	assert.Equal(t, 0.8, kp.Score)

	kp = toFrame(image.Pt(47, 63), 0.1, 48, 64, image.Rect(0, 0, 192, 256))
	assert.InDelta(t, 190.0, kp.X, 1e-9)
	assert.InDelta(t, 254.0, kp.Y, 1e-9)
}

func TestNetworkDescription(t *testing.T) {
	assert.Equal(t, "", networkDescription("configs/vitpose_custom.py"))
	assert.Equal(t, "net.pbtxt", networkDescription("net.pbtxt"))
	assert.Equal(t, "", networkDescription(""))
}

func TestPreferredTarget(t *testing.T) {
	b, tg := preferredTarget("cuda:0")
	assert.Equal(t, gocv.NetBackendCUDA, b)
	assert.Equal(t, gocv.NetTargetCUDA, tg)

	b, tg = preferredTarget("cpu")
	assert.Equal(t, gocv.NetBackendDefault, b)
	assert.Equal(t, gocv.NetTargetCPU, tg)
}
