package trainconf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Render(&buf))

	out := buf.String()
	assert.Contains(t, out, "td-hm_ViTPose-base_8xb64-210e_coco-256x192.py',\n]")
	assert.Contains(t, out, "custom_imports = dict(imports=['mmpretrain'], allow_failed_imports=False)")
	assert.Contains(t, out, "data_root='dataset/',")
	assert.Contains(t, out, "ann_file='annotations/val.json',")
	assert.Contains(t, out, "batch_size=16,")
	assert.Contains(t, out, "keypoint_names = [\n    'left_shoulder',\n    'right_shoulder',")
	assert.Contains(t, out, "    'right_ankle',\n]")
	assert.Contains(t, out, "skeleton = [\n    [1, 3],\n    [3, 5],")
	assert.Contains(t, out, "    [10, 12],\n]")
	assert.Contains(t, out, "out_channels=12")
	assert.Contains(t, out, "num_keypoints=12")
	assert.Contains(t, out, "max_epochs=210")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_root: /data/lowerbody/
batch_size: 8
skeleton:
  - [0, 2]
  - [1, 3]
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/lowerbody/", c.DataRoot)
	assert.Equal(t, 8, c.BatchSize)
	assert.Equal(t, 210, c.MaxEpochs)
	assert.Equal(t, [][]int{{0, 2}, {1, 3}}, c.Skeleton)
	assert.Len(t, c.KeypointNames, 12)
	assert.NoError(t, c.Validate())
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"coco head":          func(c *Config) { c.OutChannels = 17 },
		"keypoint mismatch":  func(c *Config) { c.NumKeypoints = 11 },
		"names mismatch":     func(c *Config) { c.KeypointNames = c.KeypointNames[:11] },
		"edge out of range":  func(c *Config) { c.Skeleton = append(c.Skeleton, []int{11, 12}) },
		"edge wrong arity":   func(c *Config) { c.Skeleton = append(c.Skeleton, []int{1}) },
		"no batch":           func(c *Config) { c.BatchSize = 0 },
		"no annotation file": func(c *Config) { c.TrainAnn = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			err := c.Validate()
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
			assert.Error(t, c.Render(&bytes.Buffer{}))
		})
	}
}

func TestPyString(t *testing.T) {
	assert.Equal(t, `'it\'s'`, pyString("it's"))
	assert.Equal(t, `'a\\b'`, pyString(`a\b`))
}
