package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dicom-archive/config"
	"dicom-archive/database"
	"dicom-archive/database/migrate"
	"dicom-archive/logging"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate [init|up|down|reset|version|set_version <n>]",
	Short: "use go-pg migration tool",
	Long:  `migrate uses go-pg migration tool under the hood supporting the same commands and an additional reset command`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if cfg.StoreDriver != config.DriverPostgres {
			return errors.New("migrate needs the postgres store driver")
		}
		log := logging.NewLogger(cfg.LogLevel, cfg.LogTextLogging)

		db, err := database.DBConn(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		return migrate.Migrate(db, log.WithField("module", "migrate"), args)
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
