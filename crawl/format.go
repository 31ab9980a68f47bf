package crawl

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the xxhash64 of text with whitespace collapsed,
// as 16 hex digits.
func ContentHash(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	h := strconv.FormatUint(xxhash.Sum64String(normalized), 16)
	return strings.Repeat("0", 16-len(h)) + h
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}
