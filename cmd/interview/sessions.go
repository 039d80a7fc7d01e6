// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/store"
	"github.com/JNalv/interview-agent/internal/transcript"
)

const listTimeLayout = "2006-01-02 15:04"

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse archived interviews",
	}

	cmd.AddCommand(
		newSessionsListCmd(),
		newSessionsShowCmd(),
		newSessionsDeleteCmd(),
	)

	return cmd
}

func newSessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived interviews, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
	cmd.Flags().Int("limit", 20, "maximum number of sessions")
	cmd.Flags().Int("offset", 0, "number of sessions to skip")
	return cmd
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print an archived interview",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an interview from the archive (the transcript file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	}
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	archive, err := archiveFromConfig()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	sessions, err := archive.ListSessions(cmd.Context(), store.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, "No archived interviews.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tENDED\tMODEL\tTURNS\tTOKENS\tTRANSCRIPT")
	for _, s := range sessions {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			s.ID, s.EndedAt.Local().Format(listTimeLayout), s.Model, s.TurnCount,
			s.TotalTokens, s.CapacityTokens, s.TranscriptPath)
	}
	return tw.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	archive, err := archiveFromConfig()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	rec, err := archive.GetSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Session:    %s\n", rec.ID)
	_, _ = fmt.Fprintf(out, "Started:    %s\n", rec.StartedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(out, "Ended:      %s\n", rec.EndedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(out, "Model:      %s\n", rec.Model)
	_, _ = fmt.Fprintf(out, "Tokens:     %d/%d (documents and persona: %d)\n", rec.TotalTokens, rec.CapacityTokens, rec.BaselineTokens)
	_, _ = fmt.Fprintf(out, "Transcript: %s\n\n", rec.TranscriptPath)

	turns := make([]interview.Turn, len(rec.Turns))
	for i, t := range rec.Turns {
		turns[i] = interview.Turn{Role: t.Role, Text: t.Text, TokenCount: t.TokenCount, At: t.At}
	}
	_, err = fmt.Fprint(out, transcript.RenderBody(transcript.Sections(turns)))
	return err
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	archive, err := archiveFromConfig()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	if err := archive.DeleteSession(cmd.Context(), args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return err
}

func archiveFromConfig() (store.Archive, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openArchive(cfg)
}
