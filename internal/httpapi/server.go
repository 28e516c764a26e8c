package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/wellness-risk/internal/api"
	"github.com/danielpatrickdp/wellness-risk/internal/assessor"
)

// Service is the assessment backend the handlers call.
type Service interface {
	Calculate(ctx context.Context, userID string) (assessor.Result, error)
	Latest(ctx context.Context, userID string) (assessor.Result, bool, error)
}

// #region server
// Server exposes the risk service over HTTP.
type Server struct {
	svc    Service
	logger *zap.Logger
	engine *gin.Engine
}

// NewServer wires routes and middleware. logger may be nil.
func NewServer(svc Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger.Named("http"), engine: gin.New()}
	s.engine.Use(gin.Recovery(), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"OPTIONS", "GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}), s.accessLog())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/risk-score", s.getRiskScore)
	s.engine.POST("/calculate-risk", s.calculateRisk)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("http serve %s: %w", addr, err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve %s: %w", addr, err)
	}
	return nil
}

// #endregion server

// #region middleware
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// #endregion middleware

// #region handlers
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) getRiskScore(c *gin.Context) {
	userID := c.DefaultQuery("userId", api.DefaultUserID)
	res, ok, err := s.svc.Latest(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("latest assessment", zap.String("user", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, api.Failure(err.Error()))
		return
	}
	if !ok {
		c.JSON(http.StatusOK, api.NoAssessment())
		return
	}
	c.JSON(http.StatusOK, api.FromResult(res))
}

func (s *Server) calculateRisk(c *gin.Context) {
	var req api.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Failure("invalid request body"))
		return
	}
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, api.Failure("userId is required"))
		return
	}
	res, err := s.svc.Calculate(c.Request.Context(), req.UserID)
	if errors.Is(err, assessor.ErrMissingUser) {
		c.JSON(http.StatusBadRequest, api.Failure(err.Error()))
		return
	}
	if err != nil {
		s.logger.Error("calculate risk", zap.String("user", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, api.Failure(err.Error()))
		return
	}
	resp := api.FromResult(res)
	resp.Message = api.CompletedMessage
	c.JSON(http.StatusOK, resp)
}

// #endregion handlers
