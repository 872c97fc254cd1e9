// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import (
	"fmt"
	"strings"
)

// markdownBlocks splits Markdown at ATX headings (# through ######).
// Page markers like <!-- page 3 --> are dropped.
func markdownBlocks(content string) []block {
	var (
		blocks    []block
		heading   string
		level     int
		bodyLines []string
	)

	flush := func() {
		body := strings.Join(bodyLines, "\n")
		if heading != "" || strings.TrimSpace(body) != "" {
			blocks = append(blocks, block{heading: heading, level: level, text: body})
		}
		bodyLines = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if isPageMarker(trimmed) {
			continue
		}
		if n := headingDepth(trimmed); n > 0 {
			flush()
			heading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			level = n
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	flush()

	return blocks
}

// headingDepth returns the ATX heading level of line, or 0.
func headingDepth(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 || n >= len(line) || line[n] != ' ' {
		return 0
	}
	return n
}

func isPageMarker(line string) bool {
	if !strings.HasPrefix(line, "<!-- page ") || !strings.HasSuffix(line, " -->") {
		return false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "<!-- page "), " -->")
	var page int
	_, err := fmt.Sscanf(inner, "%d", &page)
	return err == nil
}
