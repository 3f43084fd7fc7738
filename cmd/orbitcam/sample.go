package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/orbitcam/internal/snapshot"
)

var (
	sampleYAML   bool
	sampleOutput string
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "print the sample animation configuration",
	Long:  `writes the built-in sample animation as a configuration file, a starting point for new animations.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		encode := snapshot.Encode
		if sampleYAML {
			encode = snapshot.EncodeYAML
		}
		data, err := encode(snapshot.Sample())
		if err != nil {
			return fmt.Errorf("failed to encode sample: %w", err)
		}
		if sampleOutput == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(sampleOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
		fmt.Printf("wrote %s\n", sampleOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	sampleCmd.Flags().BoolVar(&sampleYAML, "yaml", false, "write yaml instead of json")
	sampleCmd.Flags().StringVarP(&sampleOutput, "output", "o", "", "output file (default stdout)")
}
