// Package main provides the entry point for the akahusync CLI.
package main

import (
	"github.com/akahusync/akahusync/cmd/akahusync/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
