// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JNalv/interview-agent/internal/interview"
	"github.com/JNalv/interview-agent/internal/transcript"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <transcript.txt>",
		Short: "Re-clean an exported transcript and write it again",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}

	cmd.Flags().String("clean", "", "cleaning mode: none, filler or llm (default from config)")
	cmd.Flags().Bool("docx", false, "also write a .docx document")
	cmd.Flags().StringP("output", "o", "", "output file name (default <input>_clean.txt)")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if mode, _ := cmd.Flags().GetString("clean"); mode != "" {
		if !transcript.CleanMode(mode).Valid() {
			return apperr.Errorf(apperr.CodeCLIInputInvalid, "unknown cleaning mode %q", mode)
		}
		cfg.Transcript.Clean = mode
	}
	if docx, _ := cmd.Flags().GetBool("docx"); docx {
		cfg.Transcript.Docx = true
	}

	in := args[0]
	data, err := os.ReadFile(in)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeCLIInputInvalid, "reading transcript", apperr.FieldPath(in))
	}
	doc, err := transcript.Parse(string(data))
	if err != nil {
		return apperr.With(err, apperr.FieldPath(in))
	}

	name, _ := cmd.Flags().GetString("output")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + "_clean.txt"
	}

	// LLM cleaning needs a model; without one the cleaner falls back to filler.
	var completer transcript.Completer
	if transcript.CleanMode(cfg.Transcript.Clean) == transcript.CleanLLM {
		app, err := Wire(cfg, "")
		if err != nil {
			slog.Warn("no model available for llm cleaning", "error", err)
		} else {
			defer func() { _ = app.Close() }()
			completer = app.Driver
		}
	}

	snap := interview.Snapshot{ID: doc.SessionID, Turns: doc.Turns()}
	res, err := buildExporter(cfg, completer).Export(cmd.Context(), snap, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Wrote %s (%s cleaning, %d sections)\n", res.Path, res.Mode, len(doc.Sections))
	if res.DocxPath != "" {
		_, _ = fmt.Fprintf(out, "Wrote %s\n", res.DocxPath)
	}
	return nil
}
