package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/scanner"
	"github.com/docstitch/docstitch/internal/stitch"
	"github.com/docstitch/docstitch/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch sources and fragments, regenerate on change",
	Long: `Watch the playground sources and fragment files and regenerate the guide
whenever one of them changes. This is useful when editing prose and code
side by side without running the preview server.

Examples:
  docstitch watch                 # Watch all configured paths
  docstitch watch --verbose       # Print every changed file`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	logger := newLogger()
	reg := registry.NewSnippetRegistry()
	generator := stitch.NewGenerator(cfg, reg, logger, root)

	if watchVerbose {
		snippetEvents := reg.Watch()
		defer reg.UnWatch(snippetEvents)
		go func() {
			for event := range snippetEvents {
				fmt.Printf("   snippet %s: %s (%s)\n", event.Type, event.Snippet.Name, event.Snippet.FilePath)
			}
		}()
	}

	debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	fileWatcher, err := watcher.NewFileWatcher(debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.SourceOrMarkdownFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoNodeModulesFilter)
	if len(cfg.Watch.Ignore) > 0 {
		fileWatcher.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore))
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Printf("📁 File changes detected:\n")
			for _, event := range events {
				fmt.Printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Printf("📁 %d file(s) changed\n", len(events))
		}

		applySourceEvents(reg, generator.Scanner(), events)

		result, err := generateDocument(ctx, generator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Regeneration failed: %v\n", err)
			return nil
		}
		fmt.Printf("✅ Regenerated %s (%d fragments, %d snippets)\n",
			result.OutputPath, result.Fragments, result.Snippets)

		return nil
	})

	fmt.Println("🔍 Setting up file watching...")
	for _, path := range watchPaths(cfg) {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}

	fmt.Println("📁 Performing initial generation...")
	if result, err := generateDocument(ctx, generator); err != nil {
		fmt.Fprintf(os.Stderr, "Initial generation failed: %v\n", err)
	} else {
		fmt.Printf("✅ Wrote %s (%d fragments, %d snippets)\n",
			result.OutputPath, result.Fragments, result.Snippets)
	}

	fileWatcher.Start(ctx)

	fmt.Println("👀 Watching for changes... (Press Ctrl+C to stop)")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\n🛑 Stopping file watcher...")
	cancel()

	return nil
}

// watchPaths returns every directory the watcher should cover: the
// playground scan paths plus the fragments directory.
func watchPaths(cfg *config.Config) []string {
	paths := append([]string{}, cfg.Sources.ScanPaths...)
	return append(paths, cfg.Document.FragmentsDir)
}

// applySourceEvents feeds changed source files through the single-file
// rescan path so the snippet index reflects the change, and drops entries
// for deleted files. Event paths are resolved to absolute form to match how
// the generator registers them.
func applySourceEvents(reg *registry.SnippetRegistry, scn *scanner.SourceScanner, events []watcher.ChangeEvent) {
	for _, event := range events {
		path, err := filepath.Abs(event.Path)
		if err != nil || !watcher.SourceFilter(path) {
			continue
		}

		switch event.Type {
		case watcher.EventTypeDeleted, watcher.EventTypeRenamed:
			reg.RemoveFile(path)
		default:
			if err := scn.ScanFile(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: rescan of %s failed: %v\n", event.Path, err)
			}
		}
	}
}
