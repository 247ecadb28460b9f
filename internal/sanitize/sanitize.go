// Package sanitize converts raw email body content, plain or HTML,
// into clean human-readable text. The pipeline is a fixed ordered
// chain of regex passes; later steps assume earlier ones ran. The CSS
// and digit heuristics are intentionally lossy: text that happens to
// match the shape of a CSS declaration or a stray entity code is
// removed along with the real artifacts.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]+>`)
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	cssCommentPattern  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// A CSS property declaration: identifier, colon, value, semicolon.
	// Matches prose of the same shape too; accepted false-positive risk.
	cssDeclPattern   = regexp.MustCompile(`\b[a-zA-Z-]+\s*:\s*[^;{}\n]+;`)
	cssAtRulePattern = regexp.MustCompile(`@[a-zA-Z-]+\s+[^{]*\{[^}]*\}`)
	cssBracePattern  = regexp.MustCompile(`\{[^{}]*\}`)

	leadingDigitsPattern  = regexp.MustCompile(`^\d+\s+`)
	isolatedDigitsPattern = regexp.MustCompile(`\s+\d+\s+`)
)

// entityReplacements is the fixed table of HTML named entities decoded
// by both paths, applied in order.
var entityReplacements = []struct{ entity, text string }{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
	{"&mdash;", "—"},
	{"&ndash;", "–"},
	{"&hellip;", "..."},
}

// indexEntityReplacements are additionally decoded on the indexing
// path.
var indexEntityReplacements = []struct{ entity, text string }{
	{"&copy;", "(c)"},
	{"&reg;", "(R)"},
}

// Clean reduces an HTML body to plain text: style/script blocks and
// their contents are removed, remaining tags stripped, named entities
// decoded, HTML and CSS comments and residual CSS fragments removed,
// and whitespace collapsed to single spaces.
func Clean(body string) string {
	body = styleBlockPattern.ReplaceAllString(body, "")
	body = scriptBlockPattern.ReplaceAllString(body, "")
	body = htmlTagPattern.ReplaceAllString(body, "")

	for _, r := range entityReplacements {
		body = strings.ReplaceAll(body, r.entity, r.text)
	}

	body = htmlCommentPattern.ReplaceAllString(body, "")
	body = cssCommentPattern.ReplaceAllString(body, "")
	body = cssDeclPattern.ReplaceAllString(body, "")
	body = cssBracePattern.ReplaceAllString(body, "")

	return collapseWhitespace(body)
}

// CleanForIndex prepares a record body for embedding. On top of the
// Clean pipeline it decodes the extended entity table, removes CSS
// at-rules, strips leading and isolated digit runs left behind by
// numeric entity codes, and truncates the body at the start of a
// quoted reply chain so only the newest message content is embedded.
func CleanForIndex(body string) string {
	body = styleBlockPattern.ReplaceAllString(body, "")
	body = scriptBlockPattern.ReplaceAllString(body, "")
	body = htmlTagPattern.ReplaceAllString(body, "")

	for _, r := range entityReplacements {
		body = strings.ReplaceAll(body, r.entity, r.text)
	}
	for _, r := range indexEntityReplacements {
		body = strings.ReplaceAll(body, r.entity, r.text)
	}

	body = htmlCommentPattern.ReplaceAllString(body, "")
	body = cssCommentPattern.ReplaceAllString(body, "")
	body = cssDeclPattern.ReplaceAllString(body, "")
	body = cssAtRulePattern.ReplaceAllString(body, "")
	body = cssBracePattern.ReplaceAllString(body, "")

	body = leadingDigitsPattern.ReplaceAllString(body, "")
	body = isolatedDigitsPattern.ReplaceAllString(body, " ")

	body = truncateReplyChain(body)

	return collapseWhitespace(body)
}

// Reply-chain markers. A line matching any of these starts the quoted
// portion of the message; everything from that line on is dropped.
var replyMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^>`),
	regexp.MustCompile(`^On\s.+wrote:`),
	regexp.MustCompile(`(?i)^-+\s*Original Message\s*-+`),
	regexp.MustCompile(`^_{5,}\s*$`),
}

// truncateReplyChain cuts the body at the first reply marker line.
func truncateReplyChain(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, p := range replyMarkerPatterns {
			if p.MatchString(trimmed) {
				return strings.Join(lines[:i], "\n")
			}
		}
	}
	return body
}

// collapseWhitespace reduces every whitespace run to a single space
// and trims the result.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
