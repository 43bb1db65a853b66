package api

import (
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/config"
	"github.com/chenBenjamin97/pose-overlay/pkg/pipeline"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
)

type stubFrame struct{ path string }

func (f stubFrame) Path() string                                   { return f.path }
func (f stubFrame) Size() (int, int)                               { return 64, 48 }
func (f stubFrame) Close() error                                   { return nil }
func (f stubFrame) Circle(image.Point, int, color.RGBA, int)       {}
func (f stubFrame) Line(image.Point, image.Point, color.RGBA, int) {}
func (f stubFrame) Write(path string) error                        { return os.WriteFile(path, []byte("jpeg"), 0644) }

func openStub(path string) (pipeline.Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return stubFrame{path: path}, nil
}

func flat(score float64) []float64 {
	out := make([]float64, 0, 36)
	for i := 0; i < 12; i++ {
		out = append(out, float64(i), float64(i), score)
	}
	return out
}

func setup(t *testing.T) (*gin.Engine, *config.Serve) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Serve{
		Results:   filepath.Join(dir, "json"),
		Images:    filepath.Join(dir, "images"),
		Annotated: filepath.Join(dir, "vis"),
		Radius:    4,
		Thickness: 2,
	}
	for _, d := range []string{cfg.Results, cfg.Images} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}

	b, err := json.Marshal([]pose.Person{{BBox: []float64{0, 0, 64, 48}, Keypoints: flat(0.9)}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Results, "frame_002.json"), b, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Results, "frame_001.json"), b, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Results, "broken.json"), []byte(`[{"keypoints": [1, 2]}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Images, "frame_001.png"), []byte("png"), 0644))

	runner := &pipeline.Runner{Open: openStub, Logger: zap.NewNop()}
	return SetRouter(cfg, runner, zap.NewNop()), cfg
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListResults(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/results")
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"broken", "frame_001", "frame_002"}, names)
}

func TestGetResult(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/results/frame_001")
	require.Equal(t, http.StatusOK, w.Code)

	var people []personResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &people))
	require.Len(t, people, 1)
	require.Len(t, people[0].Keypoints, 12)
	assert.Equal(t, "left_knee", people[0].Keypoints[8].Name)
	assert.Equal(t, 8.0, people[0].Keypoints[8].X)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/results/frame_404").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodGet, "/api/results/broken").Code)
}

func TestValidName(t *testing.T) {
	assert.True(t, validName("frame_001"))
	assert.False(t, validName(".."))
	assert.False(t, validName(""))
	assert.False(t, validName("a/b"))
}

func TestDrawThenServeAnnotated(t *testing.T) {
	r, cfg := setup(t)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/annotated/frame_001").Code)

	//broken.json and frame_002.json have no frame and are skipped, frame_001 is drawn
	w := do(r, http.MethodPost, "/api/draw")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, []string{filepath.Join(cfg.Annotated, "frame_001.jpg")}, summary.Written)
	assert.Len(t, summary.Skipped, 2)

	w = do(r, http.MethodGet, "/api/annotated/frame_001")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg", w.Body.String())
}

func TestDrawNoInput(t *testing.T) {
	r, cfg := setup(t)
	require.NoError(t, os.RemoveAll(cfg.Results))
	require.NoError(t, os.MkdirAll(cfg.Results, 0755))

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/draw").Code)
}
