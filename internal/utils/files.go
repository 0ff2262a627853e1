package utils

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// ReadLines returns the trimmed, non-empty lines of a file with duplicates
// removed, keeping the first occurrence order. Lines starting with # are
// comments.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lo.Uniq(lines), nil
}

var unsafeChars = regexp.MustCompile(`[^\w\s-]`)

// SafeFilename strips everything but word characters, spaces and dashes
// and replaces spaces with underscores. Empty results fall back to
// fallback.
func SafeFilename(name, fallback string) string {
	safe := strings.TrimSpace(unsafeChars.ReplaceAllString(name, ""))
	safe = strings.Join(strings.Fields(safe), "_")
	if safe == "" {
		return fallback
	}
	return safe
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
