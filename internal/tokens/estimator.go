// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package tokens estimates LLM token counts from text length. Estimates
// feed budget warnings only and do not match any provider tokenizer.
package tokens

import "unicode/utf8"

// DefaultCharsPerToken is the ratio used for English prose.
const DefaultCharsPerToken = 4

// Estimator maps text to an approximate token count.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator approximates tokens as characters divided by a fixed ratio,
// rounding up so that any non-empty text costs at least one token.
type CharEstimator struct {
	CharsPerToken int
}

// NewCharEstimator returns an estimator with the given ratio. A ratio below
// one falls back to DefaultCharsPerToken.
func NewCharEstimator(charsPerToken int) CharEstimator {
	if charsPerToken < 1 {
		charsPerToken = DefaultCharsPerToken
	}
	return CharEstimator{CharsPerToken: charsPerToken}
}

func (e CharEstimator) Estimate(text string) int {
	ratio := e.CharsPerToken
	if ratio < 1 {
		ratio = DefaultCharsPerToken
	}
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + ratio - 1) / ratio
}

// Estimate uses the default ratio.
func Estimate(text string) int {
	return CharEstimator{CharsPerToken: DefaultCharsPerToken}.Estimate(text)
}
