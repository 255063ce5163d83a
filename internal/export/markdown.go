package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// MarkdownToHTML converts a note's Markdown content to HTML. It covers the
// subset the editor emits: headings, paragraphs, fenced code blocks,
// blockquotes, bullet and ordered lists, horizontal rules, and the inline
// marks bold, italic, strikethrough, code, and links.
func MarkdownToHTML(content string) string {
	var out strings.Builder
	lines := strings.Split(content, "\n")

	var paragraph []string
	var listItems []string
	listTag := ""
	inCode := false
	var codeLines []string

	flushParagraph := func() {
		if len(paragraph) == 0 {
			return
		}
		rendered := make([]string, len(paragraph))
		for i, line := range paragraph {
			rendered[i] = renderInline(line)
		}
		out.WriteString("<p>" + strings.Join(rendered, "<br>") + "</p>\n")
		paragraph = nil
	}
	flushList := func() {
		if len(listItems) == 0 {
			return
		}
		out.WriteString("<" + listTag + ">\n")
		for _, item := range listItems {
			out.WriteString("<li>" + renderInline(item) + "</li>\n")
		}
		out.WriteString("</" + listTag + ">\n")
		listItems = nil
		listTag = ""
	}

	for _, line := range lines {
		if inCode {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				out.WriteString("<pre><code>" + html.EscapeString(strings.Join(codeLines, "\n")) + "</code></pre>\n")
				codeLines = nil
				inCode = false
				continue
			}
			codeLines = append(codeLines, line)
			continue
		}

		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "```"):
			flushParagraph()
			flushList()
			inCode = true
		case trimmed == "":
			flushParagraph()
			flushList()
		case headingLevel(trimmed) > 0:
			flushParagraph()
			flushList()
			level := headingLevel(trimmed)
			text := strings.TrimSpace(trimmed[level:])
			out.WriteString(fmt.Sprintf("<h%d>%s</h%d>\n", level, renderInline(text), level))
		case trimmed == "---" || trimmed == "***":
			flushParagraph()
			flushList()
			out.WriteString("<hr>\n")
		case strings.HasPrefix(trimmed, "> "):
			flushParagraph()
			flushList()
			out.WriteString("<blockquote><p>" + renderInline(trimmed[2:]) + "</p></blockquote>\n")
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			if listTag != "ul" {
				flushList()
				listTag = "ul"
			}
			listItems = append(listItems, trimmed[2:])
		case orderedItem(trimmed) != "":
			flushParagraph()
			if listTag != "ol" {
				flushList()
				listTag = "ol"
			}
			listItems = append(listItems, orderedItem(trimmed))
		default:
			flushList()
			paragraph = append(paragraph, trimmed)
		}
	}

	if inCode {
		out.WriteString("<pre><code>" + html.EscapeString(strings.Join(codeLines, "\n")) + "</code></pre>\n")
	}
	flushParagraph()
	flushList()

	return out.String()
}

// TextToHTML converts plain-text note content: every non-blank line becomes
// a paragraph, nothing is interpreted.
func TextToHTML(content string) string {
	var out strings.Builder
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out.WriteString("<p>" + html.EscapeString(trimmed) + "</p>\n")
	}
	return out.String()
}

func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' && level < 6 {
		level++
	}
	if level == 0 || level >= len(line) || line[level] != ' ' {
		return 0
	}
	return level
}

func orderedItem(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(line) || line[i] != '.' || line[i+1] != ' ' {
		return ""
	}
	return strings.TrimSpace(line[i+2:])
}

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// renderInline escapes the text and applies inline marks. Code spans go
// first so markers inside them are left alone by the later passes.
func renderInline(text string) string {
	escaped := html.EscapeString(text)
	escaped = replacePair(escaped, "`", "code")
	escaped = replacePair(escaped, "**", "strong")
	escaped = replacePair(escaped, "~~", "s")
	escaped = replacePair(escaped, "*", "em")
	escaped = replacePair(escaped, "_", "em")
	return linkPattern.ReplaceAllString(escaped, `<a href="$2">$1</a>`)
}

func replacePair(s, delim, tag string) string {
	var b strings.Builder
	for {
		open := strings.Index(s, delim)
		if open < 0 {
			break
		}
		rest := s[open+len(delim):]
		closing := strings.Index(rest, delim)
		if closing < 0 {
			break
		}
		b.WriteString(s[:open])
		b.WriteString("<" + tag + ">" + rest[:closing] + "</" + tag + ">")
		s = rest[closing+len(delim):]
	}
	b.WriteString(s)
	return b.String()
}
