package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipdoc/internal/config"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
	"github.com/MrSnakeDoc/clipdoc/internal/version"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipdoc",
		Short: "Append copied text to a Google Doc",
		Long: `clipdoc watches what you copy and appends it to the top of a Google Doc.

Run "clipdoc serve" to start the daemon, then point it at a document with
"clipdoc set-doc" and grant access with "clipdoc authorize".`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("daemon", "", "Daemon base URL (default from CLIPDOC_DAEMON_URL)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewAuthorizeCmd())
	cmd.AddCommand(NewClearAuthCmd())
	cmd.AddCommand(NewSetDocCmd())
	cmd.AddCommand(NewIncludeSourcesCmd())
	cmd.AddCommand(NewPasteCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewPollCmd())
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

// newClient targets --daemon, or the configured daemon URL.
func newClient(cmd *cobra.Command) (*messaging.Client, error) {
	url, err := cmd.Flags().GetString("daemon")
	if err != nil {
		return nil, err
	}
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		url = cfg.DaemonURL
	}
	// no client timeout: authorize waits for the user
	return messaging.NewClient(url, 0), nil
}
