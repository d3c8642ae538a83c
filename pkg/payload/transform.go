package payload

import (
	"html"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes every <...> sequence and then decodes entities, so
// escaped markup like &lt;b&gt; survives as text. It is a naive pattern
// removal for turning rendered markup into readable text and does not
// sanitize untrusted input.
func StripTags(s string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

// ToMarkdown converts an HTML fragment to Markdown. On conversion failure
// the stripped text is returned instead.
func ToMarkdown(fragment string) string {
	if fragment == "" {
		return ""
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			strikethrough.NewStrikethroughPlugin(),
			table.NewTablePlugin(),
		),
	)

	markdown, err := conv.ConvertString(fragment)
	if err != nil {
		return StripTags(fragment)
	}
	return strings.TrimSpace(markdown)
}
