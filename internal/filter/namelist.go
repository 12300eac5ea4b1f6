package filter

import (
	"bufio"
	"os"
	"strings"
)

// LoadNameListFile reads path as a newline-delimited list of qualified-name
// glob patterns (spec.md §4.3 supplement, grounded in the teacher's
// internal/include file-based allowlists for multi-tenant schema setups):
// blank lines and lines starting with "#" are skipped, everything else is
// trimmed and treated as one pattern.
func LoadNameListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
