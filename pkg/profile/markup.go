package profile

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	htmlTag       = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	mdImage       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdRefLink     = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]*\]`)
	rstLink       = regexp.MustCompile("`([^`<]+?)\\s*<[^>]+>`_{1,2}")
	rstRole       = regexp.MustCompile(":[a-z]+:`([^`]+)`")
	emphasis      = regexp.MustCompile("(\\*{1,3}|_{2,3}|`{1,2})([^*_`]+)(\\*{1,3}|_{2,3}|`{1,2})")
	listMarker    = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	spaceRun      = regexp.MustCompile(`\s+`)
	entityReplace = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

// ShortDescription strips HTML, Markdown and reStructuredText markup, keeps the
// first prose paragraph and truncates it to MaxDescription runes on a word
// boundary with a "..." suffix.
func ShortDescription(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	text = htmlComment.ReplaceAllString(text, "")
	text = rstLink.ReplaceAllString(text, "$1")
	text = htmlTag.ReplaceAllString(text, "")
	text = entityReplace.Replace(text)

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var para []string
	inFence := false
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, "```"), strings.HasPrefix(line, "~~~"):
			inFence = !inFence
			continue
		case inFence:
			continue
		case line == "":
			if len(para) > 0 {
				return truncate(strings.Join(para, " "))
			}
			continue
		case isUnderline(line):
			continue
		case strings.HasPrefix(line, "#"), strings.HasPrefix(line, ".. "), strings.HasPrefix(line, "|"):
			continue
		case i+1 < len(lines) && isUnderline(lines[i+1]):
			// reStructuredText section title.
			i++
			continue
		}
		if cleaned := cleanLine(line); cleaned != "" {
			para = append(para, cleaned)
		}
	}
	return truncate(strings.Join(para, " "))
}

// isUnderline reports whether a line is a run of one repeated punctuation
// character, as used for reStructuredText and setext headings.
func isUnderline(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 3 || !strings.ContainsRune(`=-~^"'+#*.`, rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}

func cleanLine(line string) string {
	line = listMarker.ReplaceAllString(line, "")
	line = strings.TrimPrefix(line, "> ")
	line = mdImage.ReplaceAllString(line, "")
	line = mdLink.ReplaceAllString(line, "$1")
	line = mdRefLink.ReplaceAllString(line, "$1")
	line = rstRole.ReplaceAllString(line, "$1")
	line = emphasis.ReplaceAllString(line, "$2")
	return strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
}

func truncate(s string) string {
	s = strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) <= MaxDescription {
		return s
	}
	runes := []rune(s)
	cut := MaxDescription - len("...")
	head := string(runes[:cut])
	if i := strings.LastIndex(head, " "); i > cut/2 {
		head = head[:i]
	}
	return strings.TrimRight(head, " ,;:.-") + "..."
}
