package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/clipdoc/internal/clipboard"
	"github.com/MrSnakeDoc/clipdoc/internal/domain"
	"github.com/MrSnakeDoc/clipdoc/internal/messaging"
)

var errNothingToPaste = errors.New("nothing to paste")

// replyErr turns a failed owner reply into an error.
func replyErr(resp messaging.Response) error {
	if resp.Success {
		return nil
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return errors.New("no reply from daemon")
}

// NewAuthorizeCmd creates the authorize command.
func NewAuthorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "authorize",
		Short: "Grant clipdoc access to Google Docs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for authorization in your browser...")
			resp, err := c.Authorize(cmd.Context())
			if err != nil {
				return err
			}
			if err := replyErr(resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authorization successful!")
			return nil
		},
	}
}

// NewClearAuthCmd creates the clear-auth command.
func NewClearAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-auth",
		Short: "Forget the Google authorization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.ClearAuth(cmd.Context())
			if err != nil {
				return err
			}
			if err := replyErr(resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authorization cleared.")
			return nil
		},
	}
}

// NewSetDocCmd creates the set-doc command.
func NewSetDocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-doc <doc-url-or-id>",
		Short: "Choose the Google Doc that receives copied text",
		Long: `Set the target document. Both a bare id and a full URL are accepted:

  clipdoc set-doc 1AbCdEf
  clipdoc set-doc https://docs.google.com/document/d/1AbCdEf/edit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseDocumentID(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			s, err := c.UpdateSettings(cmd.Context(), messaging.SettingsUpdate{DocumentID: &id})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings saved. Document: %s\n", s.DocumentID)
			return nil
		},
	}
}

// NewIncludeSourcesCmd creates the include-sources command.
func NewIncludeSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "include-sources <on|off>",
		Short: "Prefix deliveries with the page title and URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			include, err := parseSwitch(args[0])
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			s, err := c.UpdateSettings(cmd.Context(), messaging.SettingsUpdate{IncludeSourceURLs: &include})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Include source URLs: %v\n", s.IncludeSourceURLs)
			return nil
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}

// NewPasteCmd creates the paste command.
func NewPasteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paste [text...]",
		Short: "Append text (or the clipboard) to the document now",
		Long: `Send text to the document without waiting for a copy. With no arguments
the current clipboard content is sent. No source line is added.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				var err error
				text, err = clipboard.NewSystem().ReadText(cmd.Context())
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(text) == "" {
				return errNothingToPaste
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			resp, err := c.ManualPaste(cmd.Context(), messaging.Request{Text: text})
			if err != nil {
				return err
			}
			if err := replyErr(resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Text copied to Google Doc!")
			return nil
		},
	}
}

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the daemon state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			doc := st.DocumentID
			if doc == "" {
				doc = "(not set)"
			}
			fmt.Fprintf(out, "daemon:          %s\n", st.Version)
			fmt.Fprintf(out, "session:         %s\n", st.State)
			fmt.Fprintf(out, "document:        %s\n", doc)
			fmt.Fprintf(out, "include sources: %v\n", st.IncludeSourceURLs)
			fmt.Fprintf(out, "open contexts:   %d\n", st.Contexts)
			if !st.LastCopyTime.IsZero() {
				fmt.Fprintf(out, "last copy:       %s %q\n",
					st.LastCopyTime.Format("2006-01-02 15:04:05"), domain.Preview(st.LastCopiedText))
			}
			if !st.LastDeliveredAt.IsZero() {
				fmt.Fprintf(out, "last delivery:   %s %q\n",
					st.LastDeliveredAt.Format("2006-01-02 15:04:05"), domain.Preview(st.LastDeliveredText))
			}
			if st.Delivering {
				fmt.Fprintln(out, "delivery in progress")
			}
			return nil
		},
	}
}

// NewPollCmd creates the poll command.
func NewPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Check the clipboard now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.TriggerPoll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Clipboard check queued.")
			return nil
		},
	}
}
