package render

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/metrics"
)

var tracer = otel.Tracer("dicom-archive/render")

// Renderer renders stored files addressed by their catalog reference. It
// holds no mutable state and may be used concurrently.
type Renderer struct {
	resolver *fs.Resolver
	decoder  dicom.Decoder
	log      logrus.FieldLogger
}

// NewRenderer returns a Renderer reading files under resolver's root.
func NewRenderer(resolver *fs.Resolver, decoder dicom.Decoder, log logrus.FieldLogger) *Renderer {
	if decoder == nil {
		decoder = dicom.NewParser()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renderer{resolver: resolver, decoder: decoder, log: log}
}

// Render decodes the file at ref and renders its first frame with opts.
func (r *Renderer) Render(ctx context.Context, ref string, opts Options) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "render.Render")
	span.SetAttributes(attribute.String("dicom.ref", ref), attribute.Bool("render.enhance", opts.Enhance))
	start := time.Now()
	defer func() {
		metrics.RenderDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			kind := KindOf(err)
			metrics.RenderFailures.WithLabelValues(string(kind)).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, string(kind))
			r.log.WithFields(logrus.Fields{"ref": ref, "kind": kind}).WithError(err).Warn("render failed")
		} else {
			span.SetAttributes(attribute.Float64("render.level", res.Window.Level), attribute.Float64("render.width", res.Window.Width))
		}
		span.End()
	}()

	ds, err := r.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Process(ds, opts)
}

// DefaultWindow reports the window Render uses for ref without overrides.
func (r *Renderer) DefaultWindow(ctx context.Context, ref string) (Window, error) {
	ds, err := r.load(ctx, ref)
	if err != nil {
		return Window{}, err
	}
	return DefaultWindow(ds)
}

func (r *Renderer) load(ctx context.Context, ref string) (dicom.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := r.resolver.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", ref, err)
	}
	return r.decoder.Decode(f, info.Size())
}
