// Package cmd implements the dicom-archive command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dicom-archive",
	Short: "A DICOM archive with a catalog, DICOMweb and a rendering viewer API",
	Long: `dicom-archive stores DICOM files under a storage root, catalogs them
as patients, studies, series and images, and serves them over HTTP and
DICOM networking.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dicom-archive.yaml)")
	RootCmd.PersistentFlags().String("storage_root", "", "directory holding the stored files")
	RootCmd.PersistentFlags().String("store_driver", "", "catalog store: postgres or memory")
	RootCmd.PersistentFlags().String("log_level", "", "log level")
	for _, name := range []string{"storage_root", "store_driver", "log_level"} {
		viper.BindPFlag(name, RootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.SetConfigFile(filepath.Join(home, ".dicom-archive.yaml"))
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Reading config file:", err)
		os.Exit(1)
	}
}
