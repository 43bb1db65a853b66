package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/config"
	"github.com/chenBenjamin97/pose-overlay/pkg/model"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//Infer runs m on every frame in cfg.Input using a box over the whole frame, and writes the detected persons of
//"<base>.jpg|png" to "<cfg.Output>/<base>.json". With cfg.Vis set, the frame is also saved with the detections drawn
//on it under its original name in cfg.VisOut.
func (r *Runner) Infer(ctx context.Context, cfg *config.Infer, m model.Model) (*Summary, error) {
	images, err := listInputs(cfg.Input, utils.ImageExts...)
	if err != nil {
		return nil, errors.Wrap(err, "Infer")
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return nil, errors.Wrapf(err, "Infer: could not create '%s'", cfg.Output)
	}
	if cfg.Vis {
		if err := os.MkdirAll(cfg.VisOut, 0755); err != nil {
			return nil, errors.Wrapf(err, "Infer: could not create '%s'", cfg.VisOut)
		}
	}

	logger := r.logger()
	summary := &Summary{Output: cfg.Output, Written: make([]string, 0, len(images))}
	bar := r.progress(len(images), "Inference")

	for _, imgPath := range images {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		out, err := r.inferOne(ctx, cfg, m, imgPath)
		if err != nil {
			return summary, errors.Wrap(err, "Infer")
		}

		summary.Written = append(summary.Written, out)
		logger.Debug("frame inferred", zap.String("image", imgPath), zap.String("result", out))
		_ = bar.Add(1)
	}

	logger.Info("Inference complete! JSON results saved", zap.String("output", cfg.Output), zap.Int("frames", len(summary.Written)))
	if cfg.Vis {
		logger.Info("Visualization images saved", zap.String("output", cfg.VisOut))
	}

	return summary, nil
}

func (r *Runner) inferOne(ctx context.Context, cfg *config.Infer, m model.Model, imgPath string) (string, error) {
	frame, err := r.Open(imgPath)
	if err != nil {
		return "", err
	}
	defer frame.Close()

	width, height := frame.Size()
	people, err := m.Infer(ctx, frame, model.WholeImage(width, height))
	if err != nil {
		return "", errors.Wrapf(err, "'%s'", imgPath)
	}
	if people == nil {
		people = []pose.Person{}
	}

	out := ResultPath(cfg.Output, imgPath)
	if err := writeJSON(out, people); err != nil {
		return "", err
	}

	if cfg.Vis {
		if err := pose.DrawPeople(frame, people, pose.LowerBody, pose.OverlayStyle()); err != nil {
			return "", errors.Wrapf(err, "'%s'", imgPath)
		}
		if err := frame.Write(filepath.Join(cfg.VisOut, filepath.Base(imgPath))); err != nil {
			return "", err
		}
	}

	return out, nil
}

//writeJSON writes v indented by 4 spaces
func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "writeJSON: encode '%s'", path)
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return errors.Wrapf(err, "writeJSON: '%s'", path)
	}
	return nil
}
