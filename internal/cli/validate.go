package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowline/pkg/diagram"
)

// validateCommand creates the validate command: it parses a diagram file
// and reports every diagram's health without rendering anything.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a diagram file for errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := diagram.ReadFile(args[0])
			if err != nil {
				return err
			}

			for _, name := range file.Names() {
				d := file.Diagrams[name]
				printSuccess("%s", name)
				printStats(d.NodeCount(), d.EdgeCount(), false)
			}
			return nil
		},
	}
}
