// Package analyze finds dependencies that a Cargo manifest declares but the
// lock file never mentions.
//
// The default analyzer is a textual heuristic, not a dependency resolver:
// a declared name counts as used when it appears anywhere in the lock text.
// A name that is a substring of another locked package (for example "log"
// inside "log-derive") is therefore never reported. The "toml" analyzer
// parses both documents and compares package names exactly.
package analyze

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/scbrown/cargo-sleek/internal/model"
)

// DependenciesHeader is the manifest section whose entries are checked.
const DependenciesHeader = "[dependencies]"

// Analyzer reports declared dependencies absent from a lock file.
type Analyzer interface {
	// Name identifies the analyzer for --analyzer and the analyzer config key.
	Name() string
	// Unused returns the declared dependencies not found in lock, in manifest
	// order.
	Unused(manifest, lock []byte) ([]model.Dependency, error)
}

// Names lists the available analyzers.
func Names() []string {
	return []string{LineAnalyzer{}.Name(), TOMLAnalyzer{}.Name()}
}

// ByName returns the analyzer called name. The empty string selects the line
// heuristic.
func ByName(name string) (Analyzer, error) {
	switch name {
	case "", "line":
		return LineAnalyzer{}, nil
	case "toml":
		return TOMLAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// LineAnalyzer scans the manifest line by line and checks each name in the
// [dependencies] section for substring presence in the lock text.
type LineAnalyzer struct{}

// Name implements Analyzer.
func (LineAnalyzer) Name() string { return "line" }

// Unused implements Analyzer. It never fails.
func (LineAnalyzer) Unused(manifest, lock []byte) ([]model.Dependency, error) {
	return CheckUnused(string(manifest), string(lock)), nil
}

// CheckUnused returns the [dependencies] entries of manifestText whose names do
// not occur anywhere in lockText.
//
// Any line starting with "[" is a section header; only the exact
// "[dependencies]" header opens the tracked section. Inside it, the text left
// of the first "=" is the dependency name. Blank lines, comments, and lines
// without "=" (continuations of multi-line values) are skipped.
func CheckUnused(manifestText, lockText string) []model.Dependency {
	var unused []model.Dependency
	inside := false
	lineNo := 0

	for raw := range strings.Lines(manifestText) {
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inside = line == DependenciesHeader
			continue
		}
		if !inside {
			continue
		}
		name, _, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.Contains(lockText, name) {
			unused = append(unused, model.Dependency{Name: name, Line: lineNo})
		}
	}
	return unused
}

// TOMLAnalyzer parses the manifest and lock file as TOML. A dependency is used
// when a [[package]] entry in the lock has its package name, comparing names
// with "-" and "_" folded together. Renamed dependencies
// (foo = { package = "bar" }) are looked up by their package name.
type TOMLAnalyzer struct{}

// Name implements Analyzer.
func (TOMLAnalyzer) Name() string { return "toml" }

type cargoManifest struct {
	Dependencies map[string]any `toml:"dependencies"`
}

type cargoLock struct {
	Package []struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// Unused implements Analyzer.
func (TOMLAnalyzer) Unused(manifest, lock []byte) ([]model.Dependency, error) {
	var m cargoManifest
	if err := toml.Unmarshal(manifest, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	locked, err := LockedPackages(lock)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(locked))
	for _, p := range locked {
		have[foldName(p)] = true
	}

	lines := declarationLines(manifest)
	var unused []model.Dependency
	for key, spec := range m.Dependencies {
		pkg := key
		if t, ok := spec.(map[string]any); ok {
			if renamed, ok := t["package"].(string); ok && renamed != "" {
				pkg = renamed
			}
		}
		if !have[foldName(pkg)] {
			unused = append(unused, model.Dependency{Name: key, Line: lines[key]})
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		if unused[i].Line != unused[j].Line {
			return unused[i].Line < unused[j].Line
		}
		return unused[i].Name < unused[j].Name
	})
	return unused, nil
}

// LockedPackages returns the [[package]] names of a Cargo.lock document.
func LockedPackages(lock []byte) ([]string, error) {
	var l cargoLock
	if err := toml.Unmarshal(lock, &l); err != nil {
		return nil, fmt.Errorf("parse lock file: %w", err)
	}
	names := make([]string, 0, len(l.Package))
	for _, p := range l.Package {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// declarationLines maps dependency keys to the manifest line that declares
// them, so parsed results keep manifest order.
func declarationLines(manifest []byte) map[string]int {
	lines := map[string]int{}
	inside := false
	n := 0
	for raw := range bytes.Lines(manifest) {
		n++
		line := string(bytes.TrimSpace(raw))
		if strings.HasPrefix(line, "[") {
			inside = line == DependenciesHeader
			// [dependencies.serde] declares serde as a table.
			if name, ok := strings.CutPrefix(line, "[dependencies."); ok {
				name = strings.Trim(strings.TrimSuffix(name, "]"), `"'`)
				if _, seen := lines[name]; !seen {
					lines[name] = n
				}
			}
			continue
		}
		if !inside {
			continue
		}
		if name, _, ok := strings.Cut(line, "="); ok {
			name = strings.Trim(strings.TrimSpace(name), `"'`)
			if _, seen := lines[name]; !seen {
				lines[name] = n
			}
		}
	}
	return lines
}

func foldName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}
