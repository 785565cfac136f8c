package main

import "github.com/adolfousier/neura-hustle-tracker-sub000/internal/cli"

// Set by ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Execute(version, commit, date)
}
