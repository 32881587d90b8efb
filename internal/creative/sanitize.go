package creative

import (
	"fmt"
	"regexp"
	"strings"
)

// headlineFolderLimit caps the sanitized headline portion of a post folder name.
const headlineFolderLimit = 50

var (
	disallowedCharPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespaceRunPattern  = regexp.MustCompile(`\s+`)
	underscoreRunPattern  = regexp.MustCompile(`_+`)
)

// SanitizeName turns free text into a filesystem-safe fragment: characters
// outside letters, digits, underscore, hyphen and whitespace are dropped,
// whitespace runs become a single underscore, underscore runs collapse, and
// leading/trailing underscores are trimmed. The function is pure and
// idempotent, so folder names computed at different times always agree.
func SanitizeName(name string) string {
	name = disallowedCharPattern.ReplaceAllString(name, "")
	name = whitespaceRunPattern.ReplaceAllString(name, "_")
	name = underscoreRunPattern.ReplaceAllString(name, "_")
	return strings.Trim(name, "_")
}

// PostFolderName builds the per-post output folder name under the posts root.
// The headline fragment is sanitized first and then truncated.
func PostFolderName(campaignName, headline string) string {
	safeHeadline := SanitizeName(headline)
	if runes := []rune(safeHeadline); len(runes) > headlineFolderLimit {
		safeHeadline = string(runes[:headlineFolderLimit])
	}
	return fmt.Sprintf("%s_%s", SanitizeName(campaignName), safeHeadline)
}
