package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/leapzhao/json-docstore/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Server struct {
	httpServer *http.Server
	config     config.Config
}

// New 创建HTTP服务器
func New(cfg config.Config, router *gin.Engine) *Server {
	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		},
	}
}

// Start 启动HTTP服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	log.Info().
		Str("address", s.httpServer.Addr).
		Str("environment", string(s.config.Environment)).
		Bool("https", s.config.Security.EnableHTTPS).
		Msg("Starting HTTP server")

	if s.config.Security.EnableHTTPS {
		return s.startHTTPS()
	}

	return s.startHTTP()
}

func (s *Server) startHTTP() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

func (s *Server) startHTTPS() error {
	if s.config.Security.CertFile == "" || s.config.Security.KeyFile == "" {
		return fmt.Errorf("certificate and key files are required for HTTPS")
	}

	if err := s.httpServer.ListenAndServeTLS(
		s.config.Security.CertFile,
		s.config.Security.KeyFile,
	); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTPS server: %w", err)
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("HTTP server shutdown completed")
	return nil
}

// GetHTTPServer 获取HTTP服务器实例
func (s *Server) GetHTTPServer() *http.Server {
	return s.httpServer
}
