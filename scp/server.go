package scp

import (
	"context"
	"time"

	"github.com/caio-sobreiro/dicomnet/server"
	"github.com/sirupsen/logrus"
)

// Server listens for DICOM associations.
type Server struct {
	Addr    string
	AETitle string
	Handler *Handler
	Timeout time.Duration

	log *logrus.Entry
}

// NewServer returns a Server for handler.
func NewServer(addr, aeTitle string, handler *Handler, log *logrus.Logger) *Server {
	return &Server{
		Addr:    addr,
		AETitle: aeTitle,
		Handler: handler,
		Timeout: 60 * time.Second,
		log:     log.WithField("module", "scp"),
	}
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	logger, closeLog := newSlogLogger(s.log)
	defer closeLog()

	s.log.WithFields(logrus.Fields{"addr": s.Addr, "ae_title": s.AETitle}).Info("storage SCP listening")
	return server.ListenAndServe(ctx, s.Addr, s.AETitle, s.Handler,
		server.WithLogger(logger),
		server.WithReadTimeout(s.Timeout),
		server.WithWriteTimeout(s.Timeout),
	)
}
