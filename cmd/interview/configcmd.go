// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/JNalv/interview-agent/internal/config"
	"github.com/JNalv/interview-agent/internal/secrets"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML (API keys redacted)",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	return cmd
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	for name, pc := range cfg.Providers {
		if pc.APIKey != "" && !secrets.IsKeyringURI(pc.APIKey) {
			pc.APIKey = "<redacted>"
			cfg.Providers[name] = pc
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeCLISetupFailure, "encoding config")
	}

	out := cmd.OutOrStdout()
	if used := v.ConfigFileUsed(); used != "" {
		_, _ = fmt.Fprintf(out, "# %s\n", used)
	}
	_, err = out.Write(data)
	return err
}
