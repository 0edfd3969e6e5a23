package storage

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadSeeds reads seed URLs from a line-oriented text file. Blank lines and
// lines starting with '#' are ignored. A missing file is a configuration
// error surfaced to the caller.
func LoadSeeds(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	seeds := make([]string, 0, 16)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seeds file %s: %w", path, err)
	}
	return seeds, nil
}
