package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docstitch/docstitch/internal/config"
	"github.com/docstitch/docstitch/internal/registry"
	"github.com/docstitch/docstitch/internal/server"
	"github.com/docstitch/docstitch/internal/stitch"
	"github.com/docstitch/docstitch/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Preview the guide in a browser with live reload",
	Long: `Start the preview server. The assembled guide is rendered as HTML and
reloaded in the browser whenever a source or fragment changes.

Examples:
  docstitch serve                 # Serve on the configured host and port
  docstitch serve --port 9000     # Serve on a different port
  docstitch serve --no-open       # Don't open the browser automatically`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8135, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-open", false, "Don't open browser automatically")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noOpen, _ := cmd.Flags().GetBool("no-open"); noOpen {
		cfg.Server.Open = false
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	logger := newLogger()
	reg := registry.NewSnippetRegistry()
	generator := stitch.NewGenerator(cfg, reg, logger, root)
	previewServer := server.NewPreviewServer(cfg, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	snippetEvents := reg.Watch()
	defer reg.UnWatch(snippetEvents)
	go func() {
		for event := range snippetEvents {
			logger.Debug(ctx, "Snippet index changed",
				"event", string(event.Type),
				"snippet", event.Snippet.Name,
				"file", event.Snippet.FilePath,
			)
		}
	}()

	result, err := generateDocument(ctx, generator)
	if err != nil {
		return err
	}
	previewServer.SetDocument(ctx, result.Markdown)

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

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		applySourceEvents(reg, generator.Scanner(), events)

		result, err := generateDocument(ctx, generator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Regeneration failed: %v\n", err)
			return nil
		}
		previewServer.SetDocument(ctx, result.Markdown)
		fmt.Printf("♻️  Reloaded after %d change(s)\n", len(events))

		return nil
	})

	for _, path := range watchPaths(cfg) {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		}
	}
	fileWatcher.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutting down preview server...")
		cancel()
	}()

	url := fmt.Sprintf("http://%s", previewServer.Addr())
	fmt.Printf("Serving guide preview at %s\n", url)

	if cfg.Server.Open {
		if err := openBrowser(url); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to open browser: %v\n", err)
		}
	}

	return previewServer.Start(ctx)
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
