package main

import (
	"os"

	"github.com/wonny/mfrank/cmd/mfrank/commands"
)

// main is the entry point for the mfrank CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/mfrank [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
