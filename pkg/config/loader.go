package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//ErrUsage is returned for missing or unparsable flags, the caller should exit with status 2
var ErrUsage = errors.New("usage error")

//EnvPrefix is prepended to every flag name to form its environment variable: --vis-out -> POSEKIT_VIS_OUT
const EnvPrefix = "POSEKIT"

type loader struct {
	fs *pflag.FlagSet
	v  *viper.Viper
}

func newLoader(name string) *loader {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config-file", "", "YAML file with values for any of these flags")
	fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of posekit %s:\n", name)
		fs.PrintDefaults()
	}

	return &loader{fs: fs, v: viper.New()}
}

//parse reads args, then layers env vars and the optional config file under them
func (l *loader) parse(args []string, required ...string) error {
	if err := l.fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errors.Wrap(ErrUsage, err.Error())
	}

	if err := l.v.BindPFlags(l.fs); err != nil {
		return errors.Wrap(err, "parse: bind flags")
	}
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.v.AutomaticEnv()

	if path := l.v.GetString("config-file"); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "parse: could not read config file '%s'", path)
		}
	}

	missing := make([]string, 0)
	for _, key := range required {
		if l.v.GetString(key) == "" {
			missing = append(missing, "--"+key)
		}
	}
	if len(missing) > 0 {
		l.fs.Usage()
		return errors.Wrapf(ErrUsage, "missing required flags: %s", strings.Join(missing, ", "))
	}

	return nil
}

//LoadInfer parses the flags of "posekit infer"
func LoadInfer(args []string) (*Infer, error) {
	l := newLoader("infer")
	l.fs.String("config", "", "path to the pose model config file (required)")
	l.fs.String("checkpoint", "", "path to the trained checkpoint (required)")
	l.fs.String("input", "", "directory of input frames, *.jpg and *.png (required)")
	l.fs.String("output", "", "directory to store per-frame JSON results (required)")
	l.fs.Bool("vis", false, "also write overlay images")
	l.fs.String("vis-out", "output/vis", "directory to store overlay images")
	l.fs.String("backend", "worker", "model backend: worker or dnn")
	l.fs.String("device", "cuda:0", "device the model runs on, e.g. cpu or cuda:0")
	l.fs.String("worker-cmd", "python3", "interpreter running the pose worker")
	l.fs.String("worker-script", "scripts/pose_worker.py", "pose worker script, empty if worker-cmd is self-contained")

	if err := l.parse(args, "config", "checkpoint", "input", "output"); err != nil {
		return nil, err
	}

	return &Infer{
		Input:        l.v.GetString("input"),
		Output:       l.v.GetString("output"),
		Vis:          l.v.GetBool("vis"),
		VisOut:       l.v.GetString("vis-out"),
		ModelConfig:  l.v.GetString("config"),
		Checkpoint:   l.v.GetString("checkpoint"),
		Backend:      l.v.GetString("backend"),
		Device:       l.v.GetString("device"),
		WorkerCmd:    l.v.GetString("worker-cmd"),
		WorkerScript: l.v.GetString("worker-script"),
		Debug:        l.v.GetBool("debug"),
	}, nil
}

//LoadDraw parses the flags of "posekit draw"
func LoadDraw(args []string) (*Draw, error) {
	l := newLoader("draw")
	l.fs.String("input-json", "", "directory of JSON results from infer (required)")
	l.fs.String("images", "", "directory of the original frames (required)")
	l.fs.String("output", "", "directory to save annotated frames (required)")
	l.fs.Int("radius", utils.DefaultRadius, "keypoint circle radius")
	l.fs.Int("thickness", utils.DefaultThickness, "skeleton line thickness")

	if err := l.parse(args, "input-json", "images", "output"); err != nil {
		return nil, err
	}

	return &Draw{
		InputJSON: l.v.GetString("input-json"),
		Images:    l.v.GetString("images"),
		Output:    l.v.GetString("output"),
		Radius:    l.v.GetInt("radius"),
		Thickness: l.v.GetInt("thickness"),
		Debug:     l.v.GetBool("debug"),
	}, nil
}

//LoadServe parses the flags of "posekit serve"
func LoadServe(args []string) (*Serve, error) {
	l := newLoader("serve")
	l.fs.Int("port", 8080, "HTTP port")
	l.fs.String("results", "", "directory of JSON results (required)")
	l.fs.String("images", "", "directory of the original frames (required)")
	l.fs.String("annotated", "", "directory annotated frames are written to and served from (required)")
	l.fs.Int("radius", utils.DefaultRadius, "keypoint circle radius")
	l.fs.Int("thickness", utils.DefaultThickness, "skeleton line thickness")

	if err := l.parse(args, "results", "images", "annotated"); err != nil {
		return nil, err
	}

	return &Serve{
		Port:      l.v.GetInt("port"),
		Results:   l.v.GetString("results"),
		Images:    l.v.GetString("images"),
		Annotated: l.v.GetString("annotated"),
		Radius:    l.v.GetInt("radius"),
		Thickness: l.v.GetInt("thickness"),
		Debug:     l.v.GetBool("debug"),
	}, nil
}

//LoadTrainConf parses the flags of "posekit trainconf"
func LoadTrainConf(args []string) (*TrainConf, error) {
	l := newLoader("trainconf")
	l.fs.String("file", "", "YAML training description, built-in defaults when empty")
	l.fs.String("output", "-", "file to write the Python override config to, - for stdout")

	if err := l.parse(args); err != nil {
		return nil, err
	}

	return &TrainConf{
		File:   l.v.GetString("file"),
		Output: l.v.GetString("output"),
		Debug:  l.v.GetBool("debug"),
	}, nil
}
