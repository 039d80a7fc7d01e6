// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package anthropic

var (
	ConvertMessages = convertMessages
	BuildParams     = buildParams
)
