package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Initialize a new guide project",
	Long: `Initialize a new guide project with the necessary directory structure and
configuration. If no name is provided, initializes in the current
directory.

The scaffold contains a config file, a fragments directory with two
starter fragments, and a playground source with a marked region, so
'docstitch generate' works immediately.

Examples:
  docstitch init                  # Initialize in current directory
  docstitch init my-guide         # Initialize in new directory 'my-guide'
  docstitch init --minimal        # Config file only, no example content`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initMinimal bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Minimal setup without example content")
}

func runInit(cmd *cobra.Command, args []string) error {
	var projectDir string

	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		projectDir = cwd
	} else {
		projectDir = args[0]
		if err := os.MkdirAll(projectDir, 0o755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}

	type scaffoldFile struct {
		rel     string
		content string
	}

	files := []scaffoldFile{
		{".docstitch.yml", initConfigFile},
	}
	if !initMinimal {
		files = append(files,
			scaffoldFile{filepath.Join("docs", "fragments", "10-introduction.md"), initIntroFragment},
			scaffoldFile{filepath.Join("docs", "fragments", "20-getting-started.md"), initStartedFragment},
			scaffoldFile{filepath.Join("playground", "src", "greeter.ts"), initPlaygroundSource},
		)
	}

	for _, f := range files {
		rel, content := f.rel, f.content
		path := filepath.Join(projectDir, rel)

		if _, err := os.Stat(path); err == nil {
			fmt.Printf("   skipping %s (already exists)\n", rel)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
		fmt.Printf("   created %s\n", rel)
	}

	fmt.Println()
	fmt.Println("✅ Guide project initialized!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  docstitch generate    Assemble the guide")
	fmt.Println("  docstitch serve       Preview it with live reload")

	return nil
}

const initConfigFile = `document:
  title: "Usage Guide"
  fragments_dir: docs/fragments
  output: README.md

sources:
  scan_paths:
    - ./playground

server:
  host: localhost
  port: 8135

watch:
  debounce_ms: 300
`

const initIntroFragment = `---
title: "Introduction"
weight: 10
---

## Introduction

Welcome to the guide. Edit the fragments under docs/fragments and the
sources under playground, then run docstitch generate.

::toc::
`

const initStartedFragment = `---
title: "Getting Started"
weight: 20
---

## Getting Started

The greeter below is spliced in from the playground source. Change the
code and regenerate; the guide follows.

::snippet='greeter'::
`

const initPlaygroundSource = `// ::snippet greeter
// ::note The region markers never appear in the generated guide.
export function greet(name: string): string {
  return ` + "`Hello, ${name}!`" + `;
}
// ::end
`
