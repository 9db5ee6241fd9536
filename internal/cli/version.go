package cli

import (
	"runtime/debug"
)

// Version and Commit are set at build time via -ldflags.
//
//	go build -ldflags "-X github.com/scbrown/cargo-sleek/internal/cli.Version=v0.3.0
//	  -X github.com/scbrown/cargo-sleek/internal/cli.Commit=48cae1d"
var (
	Version = ""
	Commit  = ""
)

// The version is a root flag rather than a subcommand: "cargo-sleek version"
// is forwarded to "cargo version".
func init() {
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("cargo-sleek {{.Version}}\n")
}

// versionString returns "v0.3.0 (48cae1d)", "dev (48cae1d)" or just the
// version when no commit is known.
func versionString() string {
	v := Version
	if v == "" {
		v = "dev"
	}

	c := Commit
	if c == "" {
		c = commitFromBuildInfo()
	}
	if c == "" {
		return v
	}
	return v + " (" + shortCommit(c) + ")"
}

// commitFromBuildInfo extracts vcs.revision from Go's embedded build info.
func commitFromBuildInfo() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// shortCommit returns the first 7 characters of a commit hash.
func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
