package render

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// PlainText converts the light markup some posts carry to wrapped plain
// text. Paragraphs and <br> become line breaks, links keep their target,
// emphasis is dropped and everything else is reduced to its text.
func PlainText(raw string, width int) string {
	if raw == "" {
		return ""
	}
	if !strings.ContainsRune(raw, '<') {
		return wrapText(strings.TrimSpace(html.UnescapeString(raw)), width)
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var href string
	var linkStart int

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return wrapText(strings.TrimSpace(sb.String()), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p", "div":
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
			case "br":
				sb.WriteString("\n")
			case "li":
				sb.WriteString("\n- ")
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						href = attr.Val
					}
				}
				linkStart = sb.Len()
			}

		case xhtml.EndTagToken:
			if tokenizer.Token().Data == "a" && href != "" {
				// Skip the target when the link text already is the URL.
				if text := sb.String()[linkStart:]; strings.TrimSpace(text) != href {
					sb.WriteString(" [" + href + "]")
				}
				href = ""
			}

		case xhtml.TextToken:
			sb.WriteString(tokenizer.Token().Data)
		}
	}
}

// wrapText word-wraps each line to width display cells.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := Width(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
