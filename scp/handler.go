// Package scp receives instances over DICOM networking (C-STORE) and
// answers verification requests (C-ECHO).
package scp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caio-sobreiro/dicomnet/dicom"
	"github.com/caio-sobreiro/dicomnet/dimse"
	"github.com/caio-sobreiro/dicomnet/services"
	"github.com/caio-sobreiro/dicomnet/types"
	"github.com/sirupsen/logrus"

	"dicom-archive/ingest"
	"dicom-archive/metrics"
)

// C-STORE response statuses.
const (
	StatusStoreFailed      uint16 = 0xC001
	StatusCannotUnderstand uint16 = 0xC210
	StatusUnrecognized     uint16 = 0x0211
)

// Storer stores one Part 10 file.
type Storer interface {
	Store(ctx context.Context, data []byte) (*ingest.Outcome, error)
}

// Handler is the dicomnet service handler of the archive.
type Handler struct {
	store Storer
	log   logrus.FieldLogger
}

// NewHandler returns a Handler storing through store.
func NewHandler(store Storer, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{store: store, log: log}
}

// HandleDIMSE answers one DIMSE request. A failure, panics included, is
// reported in the response status and never ends the association.
func (h *Handler) HandleDIMSE(ctx context.Context, msg *types.Message, data []byte) (resp *types.Message, _ []byte, _ error) {
	defer func() {
		if p := recover(); p != nil {
			h.log.WithField("message_id", msg.MessageID).Errorf("panic handling DIMSE request: %v", p)
			resp = services.CreateErrorResponse(msg, StatusStoreFailed)
			count(msg.CommandField, resp.Status)
		}
	}()

	switch msg.CommandField {
	case dimse.CEchoRQ:
		resp = services.NewCEchoResponse(msg, dimse.StatusSuccess)
	case dimse.CStoreRQ:
		resp = services.NewCStoreResponse(msg, h.cstore(ctx, msg, data))
	default:
		h.log.WithField("command_field", fmt.Sprintf("0x%04X", msg.CommandField)).Warn("unsupported DIMSE command")
		resp = services.CreateErrorResponse(msg, StatusUnrecognized)
	}
	count(msg.CommandField, resp.Status)
	return resp, nil, nil
}

func (h *Handler) cstore(ctx context.Context, msg *types.Message, data []byte) uint16 {
	log := h.log.WithFields(logrus.Fields{
		"message_id":       msg.MessageID,
		"sop_instance_uid": msg.AffectedSOPInstanceUID,
		"transfer_syntax":  msg.TransferSyntaxUID,
	})

	if !dicom.HasPart10Header(data) {
		data = WrapPart10(data, msg.AffectedSOPClassUID, msg.AffectedSOPInstanceUID, msg.TransferSyntaxUID)
	}

	out, err := h.store.Store(ctx, data)
	switch {
	case err == nil:
		log.WithField("created", out.Created).Info("C-STORE complete")
		return dimse.StatusSuccess
	case ingest.Rejected(err):
		log.WithError(err).Warn("C-STORE rejected")
		return StatusCannotUnderstand
	default:
		log.WithError(err).Error("C-STORE failed")
		return StatusStoreFailed
	}
}

func count(command, status uint16) {
	name := fmt.Sprintf("0x%04X", command)
	switch command {
	case dimse.CEchoRQ:
		name = "C-ECHO"
	case dimse.CStoreRQ:
		name = "C-STORE"
	}
	metrics.SCPRequests.WithLabelValues(name, fmt.Sprintf("0x%04X", status)).Inc()
}

// newSlogLogger writes dicomnet's records through a logrus entry.
func newSlogLogger(entry *logrus.Entry) (*slog.Logger, func() error) {
	w := entry.WriterLevel(logrus.InfoLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})), w.Close
}
