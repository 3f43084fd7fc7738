package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inamate/orbitcam/internal/segment"
)

var validateCmd = &cobra.Command{
	Use:   "validate <config>",
	Short: "check a configuration file",
	Long: `decodes a configuration file and reports settings that cannot be rendered.
segment rows that are incomplete are counted but not errors; they are skipped
during playback.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}

		figure := segment.Resolve(snap.FigureSegments)
		camera := segment.Resolve(snap.CameraSegments)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "frames:\t%d at %d fps\n", snap.NumFrames, snap.FPS)
		fmt.Fprintf(w, "size:\t%dx%d\n", snap.VideoWidth, snap.VideoHeight)
		fmt.Fprintf(w, "format:\t%s\n", snap.OutputFormat)
		fmt.Fprintf(w, "figure segments:\t%d active / %d rows\n", len(figure), len(snap.FigureSegments))
		fmt.Fprintf(w, "camera segments:\t%d active / %d rows\n", len(camera), len(snap.CameraSegments))
		w.Flush()

		if err := snap.Validate(); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
