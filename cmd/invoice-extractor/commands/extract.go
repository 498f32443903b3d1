package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spherical/invoice-extractor/cmd/invoice-extractor/ui"
	"github.com/spherical/invoice-extractor/internal/config"
	"github.com/spherical/invoice-extractor/internal/extract"
	"github.com/spherical/invoice-extractor/internal/llm"
	"github.com/spherical/invoice-extractor/internal/observability"
	"github.com/spherical/invoice-extractor/internal/pdf"
)

var verboseExtract bool

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Run the extraction locally and print the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	cmd.Flags().BoolVarP(&verboseExtract, "verbose", "v", false, "log pipeline progress to stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]

	if err := pdf.NewValidator().ValidatePDFPath(pdfPath); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if missing := cfg.MissingRequired(); len(missing) > 0 {
		return fmt.Errorf("missing required environment: %v", missing)
	}

	logger := observability.Nop()
	if verboseExtract {
		logger = observability.NewLogger(observability.LogConfig{
			Level:       "debug",
			Format:      "console",
			Output:      cmd.ErrOrStderr(),
			ServiceName: "invoice-extractor-cli",
		})
	}

	svc := extract.NewService(
		pdf.NewRasterizer(pdf.WithMaxPages(cfg.Render.MaxPages), pdf.WithScale(cfg.Render.Scale)),
		llm.NewClient(llm.Config{
			APIKey:    cfg.LLM.APIKey,
			Model:     cfg.LLM.Model,
			Endpoint:  cfg.ChatCompletionsURL(),
			MaxTokens: cfg.LLM.MaxTokens,
			Detail:    cfg.LLM.Detail,
			Timeout:   cfg.LLM.Timeout,
		}),
		logger,
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spin := ui.NewSpinner("Extracting invoice fields...")
	spin.Start()
	outcome := svc.Process(ctx, pdfPath)
	spin.Stop()

	out, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !outcome.OK() {
		return fmt.Errorf("extraction failed")
	}
	ui.Success(cmd.ErrOrStderr(), "Analyzed %d of %d pages with %s",
		outcome.Result.PagesAnalyzed, outcome.Result.TotalPages, cfg.LLM.Model)
	return nil
}
