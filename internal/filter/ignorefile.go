package filter

import (
	"os"

	"github.com/BurntSushi/toml"
)

// IgnoreFileName is the default name of the ignore file (spec.md §4.3
// supplement, grounded in the teacher's .pgschemaignore).
const IgnoreFileName = ".pgmoldignore"

// kindPatterns is one [<kind>] section of the ignore file.
type kindPatterns struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// ignoreFileTOML mirrors the teacher's per-kind pattern sections. pgmold's
// Filter has no per-kind name-pattern split, so every section's patterns
// fold into one ExcludeNames list: same semantics as the CLI's --exclude,
// just a second way to populate it.
type ignoreFileTOML struct {
	Tables     kindPatterns `toml:"tables,omitempty"`
	Views      kindPatterns `toml:"views,omitempty"`
	Functions  kindPatterns `toml:"functions,omitempty"`
	Procedures kindPatterns `toml:"procedures,omitempty"`
	Types      kindPatterns `toml:"types,omitempty"`
	Sequences  kindPatterns `toml:"sequences,omitempty"`
}

// LoadIgnoreFile reads path as a TOML ignore file and returns the union of
// every section's patterns. A missing file is not an error: the feature is
// optional, so callers get an empty, no-op pattern list.
func LoadIgnoreFile(path string) ([]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var cfg ignoreFileTOML
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	var patterns []string
	patterns = append(patterns, cfg.Tables.Patterns...)
	patterns = append(patterns, cfg.Views.Patterns...)
	patterns = append(patterns, cfg.Functions.Patterns...)
	patterns = append(patterns, cfg.Procedures.Patterns...)
	patterns = append(patterns, cfg.Types.Patterns...)
	patterns = append(patterns, cfg.Sequences.Patterns...)
	return patterns, nil
}
