//Package pipeline holds the two offline batch loops: inference over a directory
//of frames, and drawing the resulting keypoints back onto those frames.
//
//Both loops are sequential over a lexicographically sorted file list, so a run
//over the same directory always visits and writes files in the same order.
package pipeline

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/model"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
)

//ErrNoInput is returned when the input directory holds no file the pipeline can process. It is raised before any
//output directory or file is created.
var ErrNoInput = errors.New("no input files")

//Frame is an opened image the pipelines read sizes from, draw on and save
type Frame interface {
	model.Image
	pose.Canvas
	Write(path string) error
	Close() error
}

//OpenFunc opens the image at path
type OpenFunc func(path string) (Frame, error)

//Runner carries what both pipelines need besides their configuration
type Runner struct {
	Open     OpenFunc
	Logger   *zap.Logger
	Progress io.Writer //per-file progress bar, nil disables it
}

//Summary reports what a run produced
type Summary struct {
	Output  string   `json:"output"`
	Written []string `json:"written"`
	Skipped []string `json:"skipped,omitempty"`
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) progress(total int, desc string) *progressbar.ProgressBar {
	w := r.Progress
	if w == nil {
		w = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
