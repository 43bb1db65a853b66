//Package config builds the per-subcommand settings once at startup. Values come
//from flags, POSEKIT_* environment variables and an optional YAML file, in that
//order of precedence. The returned structs are not modified afterwards.
package config

import (
	"github.com/chenBenjamin97/pose-overlay/pkg/model"
)

//Infer configures the inference pipeline
type Infer struct {
	Input  string //directory of .jpg/.png frames
	Output string //directory the per-frame JSON files go to
	Vis    bool
	VisOut string

	ModelConfig string
	Checkpoint  string
	Backend     string
	Device      string

	WorkerCmd    string
	WorkerScript string

	Debug bool
}

//ModelOptions returns what model.Load needs
func (c *Infer) ModelOptions() model.Options {
	opts := model.Options{
		Backend:    c.Backend,
		Config:     c.ModelConfig,
		Checkpoint: c.Checkpoint,
		Device:     c.Device,
		WorkerCmd:  c.WorkerCmd,
	}
	if c.WorkerScript != "" {
		opts.WorkerArgs = []string{c.WorkerScript}
	}
	return opts
}

//Draw configures the visualization pipeline
type Draw struct {
	InputJSON string
	Images    string
	Output    string
	Radius    int
	Thickness int

	Debug bool
}

//Serve configures the HTTP API over the pipelines' output directories
type Serve struct {
	Port      int
	Results   string
	Images    string
	Annotated string
	Radius    int
	Thickness int

	Debug bool
}

//Draw returns the visualization settings the server runs the draw pipeline with
func (c *Serve) Draw() *Draw {
	return &Draw{
		InputJSON: c.Results,
		Images:    c.Images,
		Output:    c.Annotated,
		Radius:    c.Radius,
		Thickness: c.Thickness,
		Debug:     c.Debug,
	}
}

//TrainConf configures rendering of the training override file
type TrainConf struct {
	File   string //YAML description, empty means built-in defaults
	Output string //rendered Python override, "-" means stdout

	Debug bool
}
