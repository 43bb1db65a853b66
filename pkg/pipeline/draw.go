package pipeline

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/config"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//Draw plots the keypoints of every "<base>.json" in cfg.InputJSON onto the frame "<base>.jpg" (or ".png") from
//cfg.Images and saves it as "<cfg.Output>/<base>.jpg". Results without a frame are logged and skipped; a malformed
//result or an unreadable frame stops the run.
func (r *Runner) Draw(ctx context.Context, cfg *config.Draw) (*Summary, error) {
	results, err := listInputs(cfg.InputJSON, utils.ResultExt)
	if err != nil {
		return nil, errors.Wrap(err, "Draw")
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return nil, errors.Wrapf(err, "Draw: could not create '%s'", cfg.Output)
	}

	style := pose.DefaultStyle()
	style.Radius = cfg.Radius
	style.Thickness = cfg.Thickness

	logger := r.logger()
	summary := &Summary{Output: cfg.Output, Written: make([]string, 0, len(results))}
	bar := r.progress(len(results), "Drawing keypoints")

	for _, resultPath := range results {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		_ = bar.Add(1)

		base := utils.BaseName(resultPath)
		imgPath, ok := FindImage(cfg.Images, base)
		if !ok {
			logger.Warn("Image not found, skipped", zap.String("name", base), zap.String("images", cfg.Images))
			summary.Skipped = append(summary.Skipped, resultPath)
			continue
		}

		out, err := r.drawOne(resultPath, imgPath, cfg.Output, style)
		if err != nil {
			return summary, errors.Wrap(err, "Draw")
		}

		summary.Written = append(summary.Written, out)
		logger.Debug("frame drawn", zap.String("result", resultPath), zap.String("image", imgPath), zap.String("output", out))
	}

	logger.Info("All images saved", zap.String("output", cfg.Output), zap.Int("written", len(summary.Written)), zap.Int("skipped", len(summary.Skipped)))
	return summary, nil
}

func (r *Runner) drawOne(resultPath, imgPath, outDir string, style pose.Style) (string, error) {
	people, err := ReadResult(resultPath)
	if err != nil {
		return "", err
	}

	frame, err := r.Open(imgPath)
	if err != nil {
		return "", err
	}
	defer frame.Close()

	if err := pose.DrawPeople(frame, people, pose.LowerBody, style); err != nil {
		return "", errors.Wrapf(err, "'%s'", resultPath)
	}

	out := AnnotatedPath(outDir, resultPath)
	if err := frame.Write(out); err != nil {
		return "", err
	}
	return out, nil
}

//ReadResult loads the person records of one inference result file
func ReadResult(path string) ([]pose.Person, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ReadResult: '%s'", path)
	}

	var people []pose.Person
	if err := json.Unmarshal(b, &people); err != nil {
		return nil, errors.Wrapf(err, "ReadResult: decode '%s'", path)
	}
	return people, nil
}
