package model

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//WorkerBackend is the name the subprocess backend registers under
const WorkerBackend = "worker"

const maxWorkerLine = 16 << 20

func init() {
	Register(WorkerBackend, loadWorker)
}

//workerRequest is written to the worker's standard input, one JSON object per line.
//BBox is [x, y, w, h, score]: the framework rejects boxes without a score once a threshold is given.
type workerRequest struct {
	Image        string    `json:"image"`
	BBox         []float64 `json:"bbox"`
	BBoxFormat   string    `json:"bbox_format"`
	BBoxScoreThr float64   `json:"bbox_score_thr"`
}

func newWorkerRequest(img Image, region Region) workerRequest {
	return workerRequest{
		Image:        img.Path(),
		BBox:         append(region.XYWH(), utils.BBoxScore),
		BBoxFormat:   "xywh",
		BBoxScoreThr: utils.BBoxScoreThreshold,
	}
}

//workerResponse is the only stdout line the worker answers a request with: {"result": [...]} or {"error": "..."}
type workerResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

//parseWorkerResponse reports ok=false for lines that are not a response, such as framework logs or progress bars
func parseWorkerResponse(line string) (resp workerResponse, ok bool) {
	if !strings.HasPrefix(line, "{") {
		return resp, false
	}
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return resp, false
	}
	return resp, resp.Result != nil || resp.Error != nil
}

//worker keeps a pose estimation process alive for the whole batch. The process loads the checkpoint once,
//then answers every request line on stdin with one response line on stdout.
//Other stdout lines (progress, framework logs) are skipped.
type worker struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	logger *zap.Logger
}

func loadWorker(ctx context.Context, opts Options) (Model, error) {
	if opts.WorkerCmd == "" {
		return nil, errors.New("loadWorker: worker command is empty")
	}

	args := append([]string{}, opts.WorkerArgs...)
	args = append(args, "--config", opts.Config, "--checkpoint", opts.Checkpoint)
	if opts.Device != "" {
		args = append(args, "--device", opts.Device)
	}

	cmd := exec.CommandContext(ctx, opts.WorkerCmd, args...)
	cmd.Env = append(os.Environ(), opts.WorkerEnv...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "loadWorker: stdin")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "loadWorker: stdout")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "loadWorker: could not start '%s'", opts.WorkerCmd)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64<<10), maxWorkerLine)

	opts.Logger.Info("pose worker started", zap.String("cmd", opts.WorkerCmd), zap.Strings("args", args), zap.Int("pid", cmd.Process.Pid))

	return &worker{cmd: cmd, stdin: stdin, stdout: scanner, logger: opts.Logger}, nil
}

func (w *worker) Infer(ctx context.Context, img Image, region Region) ([]pose.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	req, err := json.Marshal(newWorkerRequest(img, region))
	if err != nil {
		return nil, errors.Wrap(err, "Infer: encode request")
	}

	if _, err := w.stdin.Write(append(req, '\n')); err != nil {
		return nil, errors.Wrap(err, "Infer: write request")
	}

	for w.stdout.Scan() {
		line := strings.TrimSpace(w.stdout.Text())
		resp, ok := parseWorkerResponse(line)
		if !ok { //log print from the worker, skip it
			w.logger.Debug("pose worker output", zap.String("line", line))
			continue
		}

		if resp.Error != nil {
			reason := *resp.Error
			if reason == "" {
				reason = "unknown error"
			}
			return nil, errors.Errorf("Infer: worker failed on '%s': %s", img.Path(), reason)
		}

		var people []pose.Person
		if err := json.Unmarshal(resp.Result, &people); err != nil {
			return nil, errors.Wrapf(err, "Infer: decode result for '%s'", img.Path())
		}
		return people, nil
	}

	if err := w.stdout.Err(); err != nil {
		return nil, errors.Wrap(err, "Infer: read result")
	}
	return nil, errors.Errorf("Infer: worker exited before answering for '%s'", img.Path())
}

//Close ends the worker's input and waits for it to exit
func (w *worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.stdin.Close(); err != nil {
		w.logger.Warn("pose worker stdin close", zap.Error(err))
	}

	if err := w.cmd.Wait(); err != nil {
		return errors.Wrap(err, "Close: waiting for pose worker")
	}
	return nil
}
