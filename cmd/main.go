package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/api"
	"github.com/chenBenjamin97/pose-overlay/pkg/config"
	"github.com/chenBenjamin97/pose-overlay/pkg/frame"
	"github.com/chenBenjamin97/pose-overlay/pkg/logger"
	"github.com/chenBenjamin97/pose-overlay/pkg/model"
	_ "github.com/chenBenjamin97/pose-overlay/pkg/model/dnn"
	"github.com/chenBenjamin97/pose-overlay/pkg/pipeline"
	"github.com/chenBenjamin97/pose-overlay/pkg/trainconf"
)

const shutdownTimeout = 10 * time.Second

const usage = `Usage: posekit <command> [flags]

Commands:
  infer      run the pose model over a directory of frames, one JSON result per frame
  draw       draw JSON results back onto their frames
  trainconf  validate and render the training override config
  serve      HTTP API over the result and annotated frame directories

Run "posekit <command> --help" for the command's flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1], os.Args[2:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cmd string, args []string) int {
	var err error
	switch cmd {
	case "infer":
		err = runInfer(ctx, args)
	case "draw":
		err = runDraw(ctx, args)
	case "trainconf":
		err = runTrainConf(args)
	case "serve":
		err = runServe(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n%s", cmd, usage)
		return 2
	}

	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, config.ErrUsage):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		//%+v prints the stack recorded where the error was created
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		return 1
	}
}

func openFrame(path string) (pipeline.Frame, error) {
	f, err := frame.Read(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func runInfer(ctx context.Context, args []string) error {
	cfg, err := config.LoadInfer(args)
	if err != nil {
		return err
	}

	log := logger.GetZapLogger(cfg.Debug)
	defer log.Sync()

	opts := cfg.ModelOptions()
	opts.Logger = log
	m, err := model.Load(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("closing model", zap.Error(err))
		}
	}()

	runner := &pipeline.Runner{Open: openFrame, Logger: log, Progress: os.Stderr}
	_, err = runner.Infer(ctx, cfg, m)
	return err
}

func runDraw(ctx context.Context, args []string) error {
	cfg, err := config.LoadDraw(args)
	if err != nil {
		return err
	}

	log := logger.GetZapLogger(cfg.Debug)
	defer log.Sync()

	runner := &pipeline.Runner{Open: openFrame, Logger: log, Progress: os.Stderr}
	_, err = runner.Draw(ctx, cfg)
	return err
}

func runTrainConf(args []string) error {
	cfg, err := config.LoadTrainConf(args)
	if err != nil {
		return err
	}

	log := logger.GetZapLogger(cfg.Debug)
	defer log.Sync()

	tc, err := trainconf.Load(cfg.File)
	if err != nil {
		return err
	}

	if cfg.Output == "-" {
		return tc.Render(os.Stdout)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return errors.Wrapf(err, "runTrainConf: could not create '%s'", cfg.Output)
	}
	if err := tc.Render(f); err != nil {
		f.Close()
		os.Remove(cfg.Output) //do not leave a half-rendered config behind
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "runTrainConf: '%s'", cfg.Output)
	}

	log.Info("training config written", zap.String("output", cfg.Output), zap.Int("keypoints", tc.NumKeypoints))
	return nil
}

func runServe(ctx context.Context, args []string) error {
	cfg, err := config.LoadServe(args)
	if err != nil {
		return err
	}

	log := logger.GetZapLogger(cfg.Debug)
	defer log.Sync()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	runner := &pipeline.Runner{Open: openFrame, Logger: log}
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           api.SetRouter(cfg, runner, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", srv.Addr))
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "runServe")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "runServe: shutdown")
	}
	return nil
}
