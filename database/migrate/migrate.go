// Package migrate holds the catalog schema migrations.
package migrate

import (
	"github.com/go-pg/migrations"
	"github.com/sirupsen/logrus"
)

// Migrate runs go-pg migrations. args follow migrations.Run: init, up,
// down, reset, version or set_version <n>; none means up.
func Migrate(db migrations.DB, log logrus.FieldLogger, args []string) error {
	oldVersion, newVersion, err := migrations.Run(db, args...)
	if err != nil {
		return err
	}
	if newVersion != oldVersion {
		log.Infof("migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("version is %d", oldVersion)
	}
	return nil
}
