package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/stitch"
)

var (
	generateCheck  bool
	generateDrafts bool
	generateFormat string
)

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Assemble the guide document from fragments and snippets",
	Long: `Assemble the guide document by scanning the playground sources for
region markers, parsing the fragment files, and splicing the referenced
code into the prose.

Output is deterministic: the same sources and fragments always produce
the same bytes, so the generated document can live in version control.

Examples:
  docstitch generate                   # Write the assembled document
  docstitch generate --check           # Exit non-zero when out of date
  docstitch generate --drafts          # Include draft fragments
  docstitch generate --output GUIDE.md # Override the output path`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().
		BoolVar(&generateCheck, "check", false, "Verify the output is up to date instead of writing it")
	generateCmd.Flags().
		BoolVar(&generateDrafts, "drafts", false, "Include fragments marked as drafts")
	generateCmd.Flags().
		StringVarP(&generateFormat, "format", "f", "text", "Summary format (text, json)")
	generateCmd.Flags().
		StringP("output", "o", "", "Output document path (overrides config)")
	generateCmd.Flags().
		Bool("no-banner", false, "Omit the generated-file banner")

	viper.BindPFlag("document.output", generateCmd.Flags().Lookup("output"))
	viper.BindPFlag("generate.no_banner", generateCmd.Flags().Lookup("no-banner"))
}

// GenerateSummary is the machine-readable result of a generate run.
type GenerateSummary struct {
	Output      string `json:"output"`
	Fragments   int    `json:"fragments"`
	Snippets    int    `json:"snippets"`
	CacheHits   int64  `json:"cache_hits"`
	CacheMisses int64  `json:"cache_misses"`
	DurationMS  int64  `json:"duration_ms"`
	Check       bool   `json:"check"`
	UpToDate    bool   `json:"up_to_date,omitempty"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if generateDrafts {
		cfg.Generate.IncludeDrafts = true
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	logger := newLogger()
	generator := stitch.NewGenerator(cfg, registry.NewSnippetRegistry(), logger, root)

	perf := logger.StartOperation("generate")
	result, err := generator.Generate(cmd.Context())
	if err != nil {
		perf.EndWithError(cmd.Context(), err)
		return err
	}
	perf.End(cmd.Context())

	if generateCheck {
		if err := generator.Check(result); err != nil {
			return err
		}
	} else {
		if err := generator.Write(result); err != nil {
			return err
		}
	}

	summary := GenerateSummary{
		Output:      result.OutputPath,
		Fragments:   result.Fragments,
		Snippets:    result.Snippets,
		CacheHits:   result.CacheHits,
		CacheMisses: result.CacheMisses,
		DurationMS:  result.Duration.Milliseconds(),
		Check:       generateCheck,
		UpToDate:    result.UpToDate,
	}

	if err := outputGenerateSummary(summary); err != nil {
		return err
	}

	if generateCheck && !result.UpToDate {
		return fmt.Errorf("%s is out of date; run 'docstitch generate'", result.OutputPath)
	}

	return nil
}

func outputGenerateSummary(summary GenerateSummary) error {
	switch generateFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	case "text":
		// fallthrough to the text summary below
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", generateFormat)
	}

	fmt.Printf("Guide Generation Summary:\n")
	fmt.Printf("  Output: %s\n", summary.Output)
	fmt.Printf("  Fragments: %d\n", summary.Fragments)
	fmt.Printf("  Snippets: %d\n", summary.Snippets)
	fmt.Printf("  Cache: %d hits, %d misses\n", summary.CacheHits, summary.CacheMisses)
	fmt.Printf("  Duration: %dms\n", summary.DurationMS)
	fmt.Println()

	if summary.Check {
		if summary.UpToDate {
			fmt.Println("✅ Document is up to date")
		} else {
			fmt.Println("❌ Document is out of date")
		}
		return nil
	}

	fmt.Println("✅ Guide assembled successfully!")

	return nil
}

// generateDocument runs a full scan and assembly, shared by watch and serve.
func generateDocument(ctx context.Context, generator *stitch.Generator) (*stitch.Result, error) {
	result, err := generator.Generate(ctx)
	if err != nil {
		return nil, err
	}
	if err := generator.Write(result); err != nil {
		return nil, err
	}
	return result, nil
}
