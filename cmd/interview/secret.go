// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JNalv/interview-agent/internal/provider"
	"github.com/JNalv/interview-agent/internal/secrets"
	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// keyValidator checks a key against the provider. Tests replace it.
var keyValidator = func(cmd *cobra.Command, p provider.Name, key string) error {
	client := &http.Client{Timeout: 15 * time.Second}
	return provider.ValidateKey(cmd.Context(), client, p, key)
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage provider API keys in the OS keyring",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretListCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key for anthropic, openai or google",
		Long: "Store an API key in the OS keyring. The key is read from stdin " +
			"(hidden when stdin is a terminal). Reference it in config as keyring://interview-agent/<provider>-api-key.",
		Args: cobra.ExactArgs(1),
		RunE: runSecretSet,
	}
	cmd.Flags().Bool("check", false, "validate the key against the provider before storing it")
	return cmd
}

func newSecretListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored secret names",
		Args:  cobra.NoArgs,
		RunE:  runSecretList,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider>",
		Short: "Delete a provider's stored API key",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func parseProviderName(arg string) (provider.Name, error) {
	p := provider.Name(strings.ToLower(arg))
	if !slices.Contains(provider.KnownNames, p) {
		return "", apperr.Errorf(apperr.CodeCLIInputInvalid, "unknown provider %q (want anthropic, openai or google)", arg)
	}
	return p, nil
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	p, err := parseProviderName(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	key, err := readSecret(cmd, fmt.Sprintf("%s API key: ", p))
	if err != nil {
		return err
	}
	if key == "" {
		return apperr.New(apperr.CodeCLIInputInvalid, "no key entered")
	}

	if check, _ := cmd.Flags().GetBool("check"); check {
		if err := keyValidator(cmd, p, key); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s accepted the key.\n", p)
	}

	if err := secretStoreFactory().Store(secrets.DefaultService, secrets.ProviderKey(string(p)), key); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Stored. Reference it in config as:\n  providers.%s.api_key: %s\n", p, secrets.ProviderURI(string(p)))
	return nil
}

// readSecret reads one line, hiding input on a terminal.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", apperr.Wrap(err, apperr.CodeCLIInputInvalid, "reading key")
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", apperr.Wrap(err, apperr.CodeCLIInputInvalid, "reading key from stdin")
	}
	return strings.TrimSpace(line), nil
}

func runSecretList(cmd *cobra.Command, _ []string) error {
	keys, err := secretStoreFactory().List(secrets.DefaultService)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No secrets stored.")
		return nil
	}
	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	p, err := parseProviderName(args[0])
	if err != nil {
		return err
	}
	name := secrets.ProviderKey(string(p))

	if err := secretStoreFactory().Delete(secrets.DefaultService, name); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return err
}
