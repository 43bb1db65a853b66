//Package trainconf describes the overrides layered onto the pose framework's
//base ViTPose config to train the 12 joint lower-body model, checks them, and
//renders them as the framework's Python config file.
package trainconf

import (
	"io"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid training config")

//Config mirrors the keys of the override file. Skeleton edges are zero-based here and one-based once rendered.
type Config struct {
	Base          string   `mapstructure:"base"`
	CustomImports []string `mapstructure:"custom_imports"`
	DataRoot      string   `mapstructure:"data_root"`
	TrainAnn      string   `mapstructure:"train_ann"`
	ValAnn        string   `mapstructure:"val_ann"`
	ImgPrefix     string   `mapstructure:"img_prefix"`
	KeypointNames []string `mapstructure:"keypoint_names"`
	Skeleton      [][]int  `mapstructure:"skeleton"`
	OutChannels   int      `mapstructure:"out_channels"`
	NumKeypoints  int      `mapstructure:"num_keypoints"`
	MaxEpochs     int      `mapstructure:"max_epochs"`
	BatchSize     int      `mapstructure:"batch_size"`
}

//Default returns the configuration the lower-body model is trained with
func Default() *Config {
	skeleton := make([][]int, len(pose.LowerBody))
	for i, e := range pose.LowerBody {
		skeleton[i] = []int{e[0], e[1]}
	}

	return &Config{
		Base:          "../mmpose/configs/body_2d_keypoint/topdown_heatmap/coco/td-hm_ViTPose-base_8xb64-210e_coco-256x192.py",
		CustomImports: []string{"mmpretrain"},
		DataRoot:      "dataset/",
		TrainAnn:      "annotations/train.json",
		ValAnn:        "annotations/val.json",
		ImgPrefix:     "images/",
		KeypointNames: append([]string{}, pose.JointNames[:]...),
		Skeleton:      skeleton,
		OutChannels:   utils.KeypointsNum,
		NumKeypoints:  utils.KeypointsNum,
		MaxEpochs:     210,
		BatchSize:     16,
	}
}

//Load reads a YAML description from path on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("base", def.Base)
	v.SetDefault("custom_imports", def.CustomImports)
	v.SetDefault("data_root", def.DataRoot)
	v.SetDefault("train_ann", def.TrainAnn)
	v.SetDefault("val_ann", def.ValAnn)
	v.SetDefault("img_prefix", def.ImgPrefix)
	v.SetDefault("keypoint_names", def.KeypointNames)
	v.SetDefault("skeleton", def.Skeleton)
	v.SetDefault("out_channels", def.OutChannels)
	v.SetDefault("num_keypoints", def.NumKeypoints)
	v.SetDefault("max_epochs", def.MaxEpochs)
	v.SetDefault("batch_size", def.BatchSize)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "Load: could not read '%s'", path)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrapf(err, "Load: could not decode '%s'", path)
	}

	return c, nil
}

//Validate checks the head's output channels, the keypoint count and the skeleton all agree on 12 joints
func (c *Config) Validate() error {
	if c.OutChannels != utils.KeypointsNum {
		return errors.Wrapf(ErrInvalid, "out_channels is %d, the heatmap head must have %d", c.OutChannels, utils.KeypointsNum)
	}
	if c.NumKeypoints != c.OutChannels {
		return errors.Wrapf(ErrInvalid, "num_keypoints %d does not match out_channels %d", c.NumKeypoints, c.OutChannels)
	}
	if len(c.KeypointNames) != c.NumKeypoints {
		return errors.Wrapf(ErrInvalid, "%d keypoint_names for %d keypoints", len(c.KeypointNames), c.NumKeypoints)
	}

	skeleton := make(pose.Skeleton, len(c.Skeleton))
	for i, e := range c.Skeleton {
		if len(e) != 2 {
			return errors.Wrapf(ErrInvalid, "skeleton edge %d has %d joints", i, len(e))
		}
		skeleton[i] = pose.Edge{e[0], e[1]}
	}
	if err := skeleton.Validate(c.NumKeypoints); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}

	if c.DataRoot == "" || c.TrainAnn == "" || c.ValAnn == "" {
		return errors.Wrap(ErrInvalid, "data_root, train_ann and val_ann must be set")
	}
	if c.MaxEpochs <= 0 || c.BatchSize <= 0 {
		return errors.Wrapf(ErrInvalid, "max_epochs %d and batch_size %d must be positive", c.MaxEpochs, c.BatchSize)
	}

	return nil
}

var overrideTemplate = template.Must(template.New("override").Funcs(template.FuncMap{
	"py":  pyString,
	"inc": func(i int) int { return i + 1 },
}).Parse(`# Generated by posekit trainconf, re-render instead of editing.
_base_ = [
    {{py .Base}},
]

custom_imports = dict(imports=[{{range $i, $m := .CustomImports}}{{if $i}}, {{end}}{{py $m}}{{end}}], allow_failed_imports=False)

train_dataloader = dict(
    batch_size={{.BatchSize}},
    dataset=dict(
        data_root={{py .DataRoot}},
        ann_file={{py .TrainAnn}},
        data_prefix=dict(img={{py .ImgPrefix}}),
    )
)
val_dataloader = dict(
    dataset=dict(
        data_root={{py .DataRoot}},
        ann_file={{py .ValAnn}},
        data_prefix=dict(img={{py .ImgPrefix}}),
    )
)
test_dataloader = val_dataloader

keypoint_names = [
{{- range .KeypointNames}}
    {{py .}},
{{- end}}
]

skeleton = [
{{- range .Skeleton}}
    [{{index . 0 | inc}}, {{index . 1 | inc}}],
{{- end}}
]

model = dict(
    head=dict(
        out_channels={{.OutChannels}}
    )
)

data_cfg = dict(
    num_keypoints={{.NumKeypoints}}
)

train_cfg = dict(
    max_epochs={{.MaxEpochs}}
)
`))

//Render validates c and writes it as a Python override config
func (c *Config) Render(w io.Writer) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if err := overrideTemplate.Execute(w, c); err != nil {
		return errors.Wrap(err, "Render")
	}
	return nil
}

//pyString quotes s as a single-quoted Python literal
func pyString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
