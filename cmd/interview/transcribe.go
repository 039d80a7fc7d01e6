// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JNalv/interview-agent/internal/speech"
)

func newTranscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a recorded answer with the configured speech backend",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscribe,
	}
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tr, err := buildTranscriber(cfg)
	if err != nil {
		return err
	}

	audio, err := speech.ReadWAVFile(args[0])
	if err != nil {
		return err
	}
	text, err := tr.Transcribe(cmd.Context(), audio)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
