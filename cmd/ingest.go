package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dicom-archive/dicom"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "catalog every DICOM file below a directory",
	Long: `ingest walks a directory, copies each DICOM file into the storage layout
unless it already lies under the storage root, and records it in the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := ingestDir(context.Background(), a, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ingested %d, duplicate %d, failed %d, skipped %d\n",
			sum.ingested, sum.duplicate, sum.failed, sum.skipped)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(ingestCmd)
}

type ingestSummary struct {
	ingested, duplicate, failed, skipped int
}

// ingestDir stores the files below dir. Files without a .dcm extension
// that do not decode are skipped; any other failure is logged and counted.
func ingestDir(ctx context.Context, a *archive, dir string) (*ingestSummary, error) {
	sum := &ingestSummary{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}

		out, err := a.ingest.StoreFile(ctx, path)
		switch {
		case err == nil && out.Created:
			sum.ingested++
		case err == nil:
			sum.duplicate++
		case errors.Is(err, dicom.ErrInvalidEncoding) && !strings.EqualFold(filepath.Ext(path), ".dcm"):
			sum.skipped++
		default:
			sum.failed++
			a.log.WithError(err).WithFields(logrus.Fields{"path": path}).Warn("ingest file")
		}
		return nil
	})
	return sum, err
}
