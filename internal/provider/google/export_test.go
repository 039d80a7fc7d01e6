// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package google

var (
	ConvertMessages = convertMessages
	BuildConfig     = buildConfig
	Classify        = classify
)
