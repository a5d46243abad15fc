package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"dicom-archive/catalog"
	"dicom-archive/config"
	"dicom-archive/database"
	"dicom-archive/dicom"
	"dicom-archive/fs"
	"dicom-archive/ingest"
	"dicom-archive/logging"
	"dicom-archive/render"
)

// archive wires the components shared by the commands.
type archive struct {
	cfg      *config.Config
	log      *logrus.Logger
	files    *fs.Resolver
	store    catalog.Catalog
	ingest   *ingest.Service
	renderer *render.Renderer
	decoder  dicom.Decoder

	closers []func() error
}

func newArchive() (*archive, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	a := &archive{cfg: cfg, log: logging.NewLogger(cfg.LogLevel, cfg.LogTextLogging), decoder: dicom.NewParser()}

	a.files, err = fs.NewResolver(cfg.StorageRoot)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		a.log.Warn("using the in-memory catalog, records are lost on exit")
		a.store = catalog.NewMemStore()
	case config.DriverPostgres:
		db, err := database.DBConn(cfg)
		if err != nil {
			a.log.WithField("module", "database").Error(err)
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.store = database.NewCatalogStore(db)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	resolver := catalog.NewResolver(a.store, a.log.WithField("module", "catalog"))
	a.ingest = ingest.NewService(a.decoder, fs.NewLayout(a.files), resolver, a.log.WithField("module", "ingest"))
	a.renderer = render.NewRenderer(a.files, a.decoder, a.log.WithField("module", "render"))
	return a, nil
}

func (a *archive) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close")
		}
	}
}
