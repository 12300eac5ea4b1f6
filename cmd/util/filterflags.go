package util

import (
	"fmt"

	"github.com/pgmold/pgmold/internal/filter"
	"github.com/spf13/cobra"
)

// FilterFlags holds the include/exclude filtering flags shared by diff,
// plan, and apply (spec.md §4.3, and its file-based supplements: .pgmoldignore
// and the teacher's include/exclude allowlist files).
type FilterFlags struct {
	Include     []string
	Exclude     []string
	IncludeFile string
	ExcludeFile string
	IgnoreFile  string
}

// Register adds the filter flags to cmd.
func (f *FilterFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.Include, "include", nil, "Qualified-name glob pattern to include (repeatable)")
	cmd.Flags().StringArrayVar(&f.Exclude, "exclude", nil, "Qualified-name glob pattern to exclude (repeatable)")
	cmd.Flags().StringVar(&f.IncludeFile, "include-file", "", "Newline-delimited file of qualified-name glob patterns to include")
	cmd.Flags().StringVar(&f.ExcludeFile, "exclude-file", "", "Newline-delimited file of qualified-name glob patterns to exclude")
	cmd.Flags().StringVar(&f.IgnoreFile, "ignore-file", "", "TOML ignore file (default: "+filter.IgnoreFileName+" in the working directory if present)")
}

// Build resolves the flags into a *filter.Filter, or nil if none were set
// and no default ignore file exists.
func (f *FilterFlags) Build() (*filter.Filter, error) {
	cfg := filter.Config{
		IncludeNames: append([]string(nil), f.Include...),
		ExcludeNames: append([]string(nil), f.Exclude...),
	}

	if f.IncludeFile != "" {
		patterns, err := filter.LoadNameListFile(f.IncludeFile)
		if err != nil {
			return nil, fmt.Errorf("reading --include-file: %w", err)
		}
		cfg.IncludeNames = append(cfg.IncludeNames, patterns...)
	}
	if f.ExcludeFile != "" {
		patterns, err := filter.LoadNameListFile(f.ExcludeFile)
		if err != nil {
			return nil, fmt.Errorf("reading --exclude-file: %w", err)
		}
		cfg.ExcludeNames = append(cfg.ExcludeNames, patterns...)
	}

	ignorePath := f.IgnoreFile
	if ignorePath == "" {
		ignorePath = filter.IgnoreFileName
	}
	ignorePatterns, err := filter.LoadIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", ignorePath, err)
	}
	cfg.ExcludeNames = append(cfg.ExcludeNames, ignorePatterns...)

	if len(cfg.IncludeNames) == 0 && len(cfg.ExcludeNames) == 0 {
		return nil, nil
	}
	return filter.New(cfg), nil
}
