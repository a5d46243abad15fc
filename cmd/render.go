package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"dicom-archive/render"
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render <ref>",
	Short: "render a stored file to PNG",
	Long:  `render windows a stored file the way the image_data endpoint does and writes the PNG.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newArchive()
		if err != nil {
			return err
		}
		defer a.Close()

		opts := render.Options{}
		if cmd.Flags().Changed("wl") {
			wl, _ := cmd.Flags().GetFloat64("wl")
			opts.WindowLevel = &wl
		}
		if cmd.Flags().Changed("ww") {
			ww, _ := cmd.Flags().GetFloat64("ww")
			opts.WindowWidth = &ww
		}
		opts.Enhance, _ = cmd.Flags().GetBool("enhance")

		res, err := a.renderer.Render(context.Background(), args[0], opts)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = strings.TrimSuffix(path.Base(args[0]), path.Ext(args[0])) + ".png"
		}
		if err := os.WriteFile(out, res.Image, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: level %g width %g enhanced %t\n", out, res.Window.Level, res.Window.Width, res.Enhanced)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Float64("wl", 0, "window level")
	renderCmd.Flags().Float64("ww", 0, "window width")
	renderCmd.Flags().Bool("enhance", false, "apply CLAHE")
	renderCmd.Flags().String("out", "", "output file (default <name>.png)")
}
