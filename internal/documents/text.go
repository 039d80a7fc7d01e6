// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package documents

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// readText reads UTF-8 text, falling back to ISO-8859-1 for legacy files.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
