package dockb

import (
	"strconv"
	"strings"
	"unicode"
)

// Heading is an ATX heading of a Markdown document.
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Outline returns the headings of a Markdown document in order. Lines inside
// fenced code blocks are skipped. Anchors follow the GitHub convention, with
// a numeric suffix for repeated titles.
func Outline(markdown string) []Heading {
	var headings []Heading
	seen := make(map[string]int)
	fence := ""

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}

		level, title, ok := parseHeading(line)
		if !ok {
			continue
		}
		anchor := headingAnchor(title)
		if n := seen[anchor]; n > 0 {
			seen[anchor]++
			anchor += "-" + strconv.Itoa(n)
		} else {
			seen[anchor] = 1
		}
		headings = append(headings, Heading{Level: level, Title: title, Anchor: anchor})
	}
	return headings
}

// FormatOutline renders headings as an indented list.
func FormatOutline(headings []Heading) string {
	var sb strings.Builder
	for _, h := range headings {
		sb.WriteString(strings.Repeat("  ", h.Level-1))
		sb.WriteString(h.Title)
		sb.WriteString("  #")
		sb.WriteString(h.Anchor)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func parseHeading(line string) (int, string, bool) {
	// Up to three spaces of indentation are allowed.
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 {
		return 0, "", false
	}
	line = line[indent:]

	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}

	// Drop an optional closing sequence of #s.
	title := strings.TrimSpace(rest)
	if trimmed := strings.TrimRight(title, "#"); trimmed != title && (trimmed == "" || strings.HasSuffix(trimmed, " ")) {
		title = strings.TrimSpace(trimmed)
	}
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func headingAnchor(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			sb.WriteRune(r)
		case r == ' ', r == '-':
			sb.WriteByte('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
