package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dicom-archive/api"
	"dicom-archive/scp"
	"dicom-archive/tracing"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start http server with configured api",
	Long:  `Starts a http server serving the viewer and DICOMweb resources and, when enabled, the storage SCP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("http_addr", "", "HTTP listen address")
	serveCmd.Flags().Bool("enable_cors", false, "enable CORS middleware")
	serveCmd.Flags().Bool("scp_enabled", false, "start the storage SCP")
	serveCmd.Flags().String("scp_addr", "", "storage SCP listen address")
	for _, name := range []string{"http_addr", "enable_cors", "scp_enabled", "scp_addr"} {
		viper.BindPFlag(name, serveCmd.Flags().Lookup(name))
	}
}

func serve() error {
	a, err := newArchive()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracing(ctx, cfg.ServiceName)
	if err != nil {
		a.log.WithField("module", "tracing").Error(err)
		return err
	}
	defer shutdownTracing(context.Background())

	router, err := api.New(api.Options{
		Reader:    a.store,
		Ingester:  a.ingest,
		Renderer:  a.renderer,
		Files:     a.files,
		Decoder:   a.decoder,
		Logger:    a.log,
		Timeout:   cfg.RenderTimeout,
		UploadMax: cfg.UploadMaxBytes,
		CORS:      cfg.EnableCORS,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errc := make(chan error, 2)
	go func() {
		a.log.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if cfg.SCPEnabled {
		handler := scp.NewHandler(a.ingest, a.log.WithField("module", "scp"))
		listener := scp.NewServer(cfg.SCPAddr, cfg.SCPAETitle, handler, a.log)
		go func() {
			if err := listener.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.log.Info("Shutting down server...")
	case err = <-errc:
		a.log.WithError(err).Error("listener failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		a.log.WithError(serr).Warn("http shutdown")
	}
	a.log.Info("Server gracefully stopped")
	return err
}
