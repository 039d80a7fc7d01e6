// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package agent

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// DefaultPersonaPrompt is used when no persona file is configured.
const DefaultPersonaPrompt = `You are an experienced, friendly interviewer conducting a one-on-one interview.

Use the context documents to ask specific, grounded questions about the interviewee's background, work and goals.

Guidelines:
- Ask exactly one question at a time and keep it concise.
- Build on previous answers with follow-up questions when an answer is vague or interesting.
- Move to a new topic once a thread has been covered.
- Do not answer your own questions or summarise at length.
- When the interviewee asks to finish, thank them and close the interview.`

// Persona is an interviewer persona loaded from a markdown file.
type Persona struct {
	Name        string
	Description string
	// Model optionally pins a provider/model reference for this persona.
	Model  string
	Prompt string
}

type personaFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Model       string `yaml:"model"`
}

// DefaultPersona returns the built-in interviewer.
func DefaultPersona() *Persona {
	return &Persona{Name: "default", Prompt: DefaultPersonaPrompt}
}

// ParsePersona parses persona markdown. Frontmatter delimited by "---" lines
// is optional; without it the whole document is the prompt.
func ParsePersona(data []byte) (*Persona, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	p := &Persona{}
	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		idx := strings.Index(rest, "\n---\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n---") {
				return nil, apperr.New(apperr.CodePersonaParseInvalid, "missing closing frontmatter delimiter")
			}
			idx = len(rest) - 4
		}

		var fm personaFrontmatter
		if err := yaml.Unmarshal([]byte(rest[:idx]), &fm); err != nil {
			return nil, apperr.Wrap(err, apperr.CodePersonaParseInvalid, "parsing frontmatter")
		}
		p.Name, p.Description, p.Model = fm.Name, fm.Description, fm.Model
		content = rest[min(idx+5, len(rest)):]
	}

	p.Prompt = strings.TrimSpace(content)
	if p.Prompt == "" {
		return nil, apperr.New(apperr.CodePersonaParseInvalid, "persona prompt is empty")
	}
	return p, nil
}

// LoadPersona reads a persona file. An empty path or a missing file yields
// the default persona.
func LoadPersona(path string) (*Persona, error) {
	if path == "" {
		return DefaultPersona(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("persona file not found, using default interviewer", "path", path)
		return DefaultPersona(), nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigLoadReadFailure, "reading persona file", apperr.FieldPath(path))
	}

	p, err := ParsePersona(data)
	if err != nil {
		return nil, apperr.With(err, apperr.FieldPath(path))
	}
	return p, nil
}
