package export

import (
	"html/template"
	"strings"
	"testing"
	"time"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "simple paragraph",
			input:    "Hello world",
			expected: "<p>Hello world</p>",
		},
		{
			name:     "heading levels",
			input:    "## Section Title",
			expected: "<h2>Section Title</h2>",
		},
		{
			name:     "bold and italic",
			input:    "**bold** and *italic*",
			expected: "<p><strong>bold</strong> and <em>italic</em></p>",
		},
		{
			name:     "bullet list",
			input:    "- Item 1\n- Item 2",
			expected: "<ul>\n<li>Item 1</li>\n<li>Item 2</li>\n</ul>",
		},
		{
			name:     "ordered list",
			input:    "1. First\n2. Second",
			expected: "<ol>\n<li>First</li>\n<li>Second</li>\n</ol>",
		},
		{
			name:     "fenced code block",
			input:    "```\nfunc main() {}\n```",
			expected: "<pre><code>func main() {}</code></pre>",
		},
		{
			name:     "code block preserves markers",
			input:    "```\n**not bold**\n```",
			expected: "<pre><code>**not bold**</code></pre>",
		},
		{
			name:     "blockquote",
			input:    "> quoted text",
			expected: "<blockquote><p>quoted text</p></blockquote>",
		},
		{
			name:     "link",
			input:    "see [docs](https://example.com)",
			expected: `<a href="https://example.com">docs</a>`,
		},
		{
			name:     "inline code shields markers",
			input:    "run `go *test*` now",
			expected: "<code>go *test*</code>",
		},
		{
			name:     "html is escaped",
			input:    "1 < 2 & <script>",
			expected: "<p>1 &lt; 2 &amp; &lt;script&gt;</p>",
		},
		{
			name:     "horizontal rule",
			input:    "above\n\n---\n\nbelow",
			expected: "<hr>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := strings.TrimSpace(MarkdownToHTML(tt.input))
			if !strings.Contains(result, strings.TrimSpace(tt.expected)) {
				t.Errorf("MarkdownToHTML() = %v, want it to contain %v", result, tt.expected)
			}
		})
	}
}

func TestMarkdownToHTMLBlankLineSplitsParagraphs(t *testing.T) {
	result := MarkdownToHTML("first\n\nsecond")
	if !strings.Contains(result, "<p>first</p>") || !strings.Contains(result, "<p>second</p>") {
		t.Errorf("expected two paragraphs, got %v", result)
	}
}

func TestTextToHTML(t *testing.T) {
	result := TextToHTML("plain line\n\n**not markdown**")
	if !strings.Contains(result, "<p>plain line</p>") {
		t.Errorf("missing paragraph: %v", result)
	}
	if !strings.Contains(result, "**not markdown**") {
		t.Errorf("plain text must not interpret markers: %v", result)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"Grocery list v1.2", "Grocery-list-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "note"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},
		{"test+sign", "test%2Bsign"},
		{"special<>", "special%3C%3E"},
		{"normal-text.txt", "normal-text.txt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestRenderNoteHTML(t *testing.T) {
	data := TemplateData{
		Title:       "Trip Planning",
		ContentHTML: template.HTML("<p>This is the content.</p>"),
		Author:      "Morgan",
		UpdatedAt:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"travel", "todo"},
		Comments: []TemplateComment{
			{Author: "Sam", Body: "Looks good"},
		},
	}

	html, err := RenderNoteHTML(data)
	if err != nil {
		t.Fatalf("RenderNoteHTML() error = %v", err)
	}

	if !strings.Contains(html, "Trip Planning") {
		t.Error("HTML missing title")
	}
	if !strings.Contains(html, "Morgan") {
		t.Error("HTML missing author")
	}
	if !strings.Contains(html, "travel") {
		t.Error("HTML missing tags")
	}
	if !strings.Contains(html, "Discussion") {
		t.Error("HTML missing comments section")
	}
	if !strings.Contains(html, "Looks good") {
		t.Error("HTML missing comment body")
	}

	// Content must be rendered as raw HTML, not escaped
	if strings.Contains(html, "&lt;p&gt;") {
		t.Error("HTML content was escaped")
	}
	if !strings.Contains(html, "<p>This is the content.</p>") {
		t.Error("HTML content should contain unescaped <p> tags")
	}
}
