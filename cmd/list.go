package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/directive"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/scanner"
	"github.com/docstitch/docstitch/internal/stitch"
	"github.com/docstitch/docstitch/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list [snippets|fragments]",
	Aliases: []string{"l"},
	Short:   "List discovered snippets or fragments",
	Long: `List the snippets discovered in the playground sources, or the fragment
files that make up the guide.

Examples:
  docstitch list                  # List snippets in table format
  docstitch list snippets -f json # Snippets as JSON
  docstitch list fragments        # Fragments with weight and directive count`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"snippets", "fragments"},
	RunE:      runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "Output format (table, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if listFormat != "table" && listFormat != "json" {
		return fmt.Errorf("unsupported format: %s (supported: table, json)", listFormat)
	}

	what := "snippets"
	if len(args) > 0 {
		what = args[0]
	}

	switch what {
	case "snippets":
		return listSnippets(cfg)
	case "fragments":
		return listFragments(cfg)
	default:
		return fmt.Errorf("unknown listing %q (supported: snippets, fragments)", what)
	}
}

func listSnippets(cfg *config.Config) error {
	reg := registry.NewSnippetRegistry()
	sourceScanner := scanner.NewSourceScanner(reg)
	sourceScanner.SetExcludePatterns(cfg.Sources.ExcludePatterns)

	for _, scanPath := range cfg.Sources.ScanPaths {
		if err := sourceScanner.ScanDirectory(scanPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to scan directory %s: %v\n", scanPath, err)
		}
	}

	snippets := reg.AllSnippets()
	if len(snippets) == 0 {
		fmt.Println("No snippets found.")
		return nil
	}

	if listFormat == "json" {
		return outputSnippetsJSON(snippets)
	}
	return outputSnippetsTable(snippets)
}

func outputSnippetsJSON(snippets []*types.SnippetInfo) error {
	output := make([]map[string]interface{}, len(snippets))
	for i, snippet := range snippets {
		output[i] = map[string]interface{}{
			"name":       snippet.Name,
			"file_path":  snippet.FilePath,
			"start_line": snippet.StartLine,
			"end_line":   snippet.EndLine,
			"language":   snippet.Language,
			"notes":      snippet.Notes,
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputSnippetsTable(snippets []*types.SnippetInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tFILE\tLINES\tLANGUAGE")
	for _, snippet := range snippets {
		fmt.Fprintf(w, "%s\t%s\t%d-%d\t%s\n",
			snippet.Name,
			snippet.FilePath,
			snippet.StartLine,
			snippet.EndLine,
			snippet.Language,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d snippets\n", len(snippets))

	return nil
}

func listFragments(cfg *config.Config) error {
	pattern := filepath.Join(cfg.Document.FragmentsDir, "*.md")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to glob fragments: %w", err)
	}
	sort.Strings(paths)

	var fragments []*types.FragmentInfo
	for _, path := range paths {
		fragment, err := directive.ParseFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse fragment %s: %v\n", path, err)
			continue
		}
		fragments = append(fragments, fragment)
	}

	if len(fragments) == 0 {
		fmt.Println("No fragments found.")
		return nil
	}

	if listFormat == "json" {
		return outputFragmentsJSON(fragments)
	}
	return outputFragmentsTable(fragments)
}

func outputFragmentsJSON(fragments []*types.FragmentInfo) error {
	output := make([]map[string]interface{}, len(fragments))
	for i, fragment := range fragments {
		output[i] = map[string]interface{}{
			"path":       fragment.Path,
			"title":      stitch.FragmentTitle(fragment),
			"weight":     fragment.Meta.Weight,
			"draft":      fragment.Meta.Draft,
			"directives": len(fragment.Directives),
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func outputFragmentsTable(fragments []*types.FragmentInfo) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PATH\tTITLE\tWEIGHT\tDRAFT\tDIRECTIVES")
	for _, fragment := range fragments {
		draft := ""
		if fragment.Meta.Draft {
			draft = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n",
			fragment.Path,
			stitch.FragmentTitle(fragment),
			fragment.Meta.Weight,
			draft,
			len(fragment.Directives),
		)
	}

	fmt.Fprintf(w, "\nTotal: %d fragments\n", len(fragments))

	return nil
}
