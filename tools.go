//go:build tools
// +build tools

// Package tools pins the generators run by `go generate` (mockgen for the
// contract and repository mocks) so go.mod and go.sum track them.
package crm_realtime

import (
	_ "go.uber.org/mock/mockgen"
)
