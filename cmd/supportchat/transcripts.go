package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"SupportChat/internal/config"
	"SupportChat/internal/session"
	"SupportChat/internal/transcript"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func newTranscriptsCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "List archived conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of transcripts to list")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one archived conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			t, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderTranscript(cmd.OutOrStdout(), t)
			return nil
		},
	})
	return cmd
}

func openStore(cfg config.Config) (*transcript.Store, error) {
	if cfg.TranscriptDB == "" {
		return nil, fmt.Errorf("no transcript database configured, set --transcript-db or SUPPORTCHAT_TRANSCRIPT_DB")
	}
	return transcript.Open(cfg.TranscriptDB)
}

func renderSummaries(w io.Writer, summaries []transcript.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No archived transcripts.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "User", "Started", "Archived", "Messages"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")

	table.AppendBulk(lo.Map(summaries, func(s transcript.Summary, _ int) []string {
		return []string{
			s.ID,
			s.UserID,
			s.StartedAt.Local().Format(timeLayout),
			s.ArchivedAt.Local().Format(timeLayout),
			strconv.Itoa(s.MessageCount),
		}
	}))
	table.Render()
}

func renderTranscript(w io.Writer, t transcript.Transcript) {
	fmt.Fprintf(w, "Session %s (user %s)\n", t.Session.ID, t.Session.UserID)
	fmt.Fprintf(w, "Started %s, archived %s\n\n",
		t.Session.StartedAt.Local().Format(timeLayout),
		t.ArchivedAt.Local().Format(timeLayout),
	)

	for _, msg := range t.Messages {
		who := "Support"
		if msg.Role == session.RoleUser {
			who = "You"
		}
		header := fmt.Sprintf("[%s] %s", msg.Timestamp.Local().Format("15:04"), who)
		if meta := msg.Meta(); meta != "" {
			header += " (" + meta + ")"
		}
		fmt.Fprintln(w, header)
		for _, line := range strings.Split(msg.Content, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
}
