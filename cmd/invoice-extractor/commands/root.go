// Package commands implements the invoice-extractor CLI.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical/invoice-extractor/cmd/invoice-extractor/ui"
)

// Version is the CLI version reported by the version command.
var Version = "1.0.0"

var (
	cfgFile string
	noColor bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice-extractor",
		Short: "Extract invoice fields from PDF documents with a vision model",
		Long: `invoice-extractor renders the first pages of an invoice PDF, sends them to a
hosted multimodal model and prints the JSON fields it returns. It can run the
extraction locally or upload a file to a running invoice extractor API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load() // .env is optional
			ui.Init(noColor)
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newExtractCmd(), newUploadCmd(), newVersionCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
