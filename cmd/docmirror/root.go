package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docmirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docmirror",
		Short: "Mirror documentation websites as Markdown files",
		Long: `docmirror mirrors documentation websites to local Markdown files.

Starting from one or more URLs, it follows every link that stays within the
start URL's origin, converts each HTML page to Markdown, and saves it as
<Title>.md. Each crawl is recorded in a local history database so that runs
can be listed and compared later.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
