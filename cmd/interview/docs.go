// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JNalv/interview-agent/internal/documents"
	"github.com/JNalv/interview-agent/internal/tokens"
)

func newDocsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs <dir>",
		Short: "Load context documents and report their token cost",
		Args:  cobra.ExactArgs(1),
		RunE:  runDocs,
	}
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loader := documents.NewLoader(documents.NewExtractor(cfg.Documents.Extensions))
	corpus, err := loader.LoadDirectory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(corpus.Files) == 0 {
		_, _ = fmt.Fprintln(out, "No documents found.")
	}
	for _, f := range corpus.Files {
		_, _ = fmt.Fprintln(out, f)
	}
	for _, fe := range corpus.Errors {
		_, _ = fmt.Fprintf(out, "skipped %s\n", fe.Error())
	}

	est := tokens.NewCharEstimator(cfg.Budget.CharsPerToken).Estimate(corpus.Text)
	capacity := cfg.Budget.CapacityTokens
	_, err = fmt.Fprintf(out, "\n%d document(s), ~%d tokens (%.1f%% of %d)\n",
		len(corpus.Files), est, float64(est)/float64(capacity)*100, capacity)
	return err
}
