// Package server exposes image to ZPL conversion over HTTP.
package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ka2n/zplgraphic"
)

// DefaultMaxBodyBytes bounds the size of an uploaded image.
const DefaultMaxBodyBytes = 32 << 20

// Server is the HTTP front end of the converter.
type Server struct {
	router       *gin.Engine
	log          *slog.Logger
	source       zplgraphic.PixelSource
	MaxBodyBytes int64
}

// New creates a server decoding images with src, or the default source when
// src is nil.
func New(src zplgraphic.PixelSource, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if src == nil {
		src = zplgraphic.ImageSource{}
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		router:       gin.New(),
		log:          log,
		source:       src,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
	s.router.Use(gin.Recovery(), s.logRequests())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.POST("/zpl", s.handleConvert)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleConvert streams the request body through a conversion stream.
// Query parameters "name" and "preamble" override the defaults.
func (s *Server) handleConvert(c *gin.Context) {
	opts := []zplgraphic.Option{
		zplgraphic.WithSource(s.source),
		zplgraphic.WithLogger(s.log),
		zplgraphic.WithPreamble(c.Query("preamble")),
	}
	if name := c.Query("name"); name != "" {
		opts = append(opts, zplgraphic.WithName(name))
	}

	var out bytes.Buffer
	stream := zplgraphic.NewConverter(opts...).NewStream(c.Request.Context(), &out)

	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.MaxBodyBytes)
	if _, err := io.Copy(stream, body); err != nil {
		stream.Abort()
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := stream.Close(); err != nil {
		var decodeErr *zplgraphic.DecodeError
		if errors.As(err, &decodeErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.log.ErrorContext(c.Request.Context(), "conversion failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=us-ascii", out.Bytes())
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.InfoContext(c.Request.Context(), "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
		)
	}
}
