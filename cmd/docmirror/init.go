package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/docmirror/internal/config"
)

//go:embed templates/docmirror.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter docmirror configuration file",
		Long: `Write a commented .docmirror file that crawl picks up automatically.

The template sets crawl-wide defaults (ignored file types, depth and page
limits) and shows how to give one documentation host its own headers,
cookie, user agent and URL patterns.

Examples:
  # Write .docmirror in the current directory
  docmirror init

  # Write the per-user config read from any directory
  docmirror init -o ~/.config/docmirror/config.yaml

  # Replace an existing file
  docmirror init -f

  # Print the template instead of writing it
  docmirror init --stdout > site.yaml`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Path of the configuration file to write")
	cmd.Flags().BoolP("force", "f", false,
		"Replace the file if it already exists")
	cmd.Flags().Bool("stdout", false,
		"Print the template to stdout and write nothing")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	if toStdout {
		_, err := cmd.OutOrStdout().Write(configTemplate)
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigFile(outputPath, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nAdd an entry under \"sites\" for each documentation host that needs:")
	fmt.Fprintln(out, "  - Request headers or a session cookie")
	fmt.Fprintln(out, "  - Its own depth or page limit")
	fmt.Fprintln(out, "  - Paths to skip or to restrict the crawl to")

	return nil
}

// writeConfigFile writes the template to path, creating parent directories.
// Without force an existing file is left untouched.
func writeConfigFile(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	// Site entries may hold cookies, so the file is private.
	f, err := os.OpenFile(path, flags, 0600) //nolint:gosec // user-chosen config path
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
