package api

import (
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chenBenjamin97/pose-overlay/pkg/config"
	"github.com/chenBenjamin97/pose-overlay/pkg/pipeline"
	"github.com/chenBenjamin97/pose-overlay/pkg/pose"
	"github.com/chenBenjamin97/pose-overlay/pkg/utils"
)

//personResponse is one detection record with its keypoints decoded and named
type personResponse struct {
	BBox      []float64            `json:"bbox,omitempty"`
	Keypoints []pose.NamedKeypoint `json:"keypoints"`
}

type server struct {
	cfg     *config.Serve
	runner  *pipeline.Runner
	logger  *zap.Logger
	drawing sync.Mutex //one draw run at a time, they write the same files
}

//SetRouter builds the HTTP API over the results, images and annotated directories of cfg
func SetRouter(cfg *config.Serve, runner *pipeline.Runner, logger *zap.Logger) *gin.Engine {
	s := &server{cfg: cfg, runner: runner, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)

	apiRoutes := r.Group("/api")
	apiRoutes.GET("/results", s.listResults)
	apiRoutes.GET("/results/:name", s.getResult)
	apiRoutes.GET("/annotated/:name", s.getAnnotated)
	apiRoutes.POST("/draw", s.draw)

	return r
}

func (s *server) accessLog(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	s.logger.Info("api request",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.Int("status", ctx.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
	)
}

//validName rejects names that would escape the served directory
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name
}

func (s *server) listResults(ctx *gin.Context) {
	files, err := utils.ListFiles(s.cfg.Results, utils.ResultExt)
	if err != nil {
		s.logger.Error("api/results: could not list results", zap.Error(err))
		ctx.Status(http.StatusInternalServerError)
		return
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = utils.BaseName(f)
	}
	ctx.JSON(http.StatusOK, names)
}

func (s *server) getResult(ctx *gin.Context) {
	name := ctx.Param("name")
	if !validName(name) {
		ctx.Status(http.StatusNotAcceptable)
		return
	}

	path := filepath.Join(s.cfg.Results, name+utils.ResultExt)
	if !utils.FileExists(path) {
		ctx.Status(http.StatusNotFound)
		return
	}

	people, err := pipeline.ReadResult(path)
	if err != nil {
		s.logger.Error("api/results: could not read result", zap.String("path", path), zap.Error(err))
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	resp := make([]personResponse, len(people))
	for i, p := range people {
		kps, err := pose.Decode(p.Keypoints)
		if err != nil {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		resp[i] = personResponse{BBox: p.BBox, Keypoints: pose.Name(kps)}
	}
	ctx.JSON(http.StatusOK, resp)
}

func (s *server) getAnnotated(ctx *gin.Context) {
	name := ctx.Param("name")
	if !validName(name) {
		ctx.Status(http.StatusNotAcceptable)
		return
	}

	path := filepath.Join(s.cfg.Annotated, name+utils.AnnotatedExt)
	if !utils.FileExists(path) {
		ctx.Status(http.StatusNotFound)
		return
	}

	ctx.Header("Content-Type", "image/jpeg")
	ctx.File(path)
}

func (s *server) draw(ctx *gin.Context) {
	if !s.drawing.TryLock() {
		ctx.JSON(http.StatusConflict, gin.H{"error": "a draw run is already in progress"})
		return
	}
	defer s.drawing.Unlock()

	summary, err := s.runner.Draw(ctx.Request.Context(), s.cfg.Draw())
	if err != nil {
		s.logger.Error("api/draw: run failed", zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoInput) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, gin.H{"error": err.Error(), "summary": summary})
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
