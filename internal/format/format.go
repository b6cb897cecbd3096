package format

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Category is the presentation class of a chat message.
type Category string

const (
	CategorySchedule Category = "schedule"
	CategoryListing  Category = "listing"
	CategoryGeneral  Category = "general"
)

// scheduleKeywords are matched case-insensitively, in this order.
var scheduleKeywords = []string{"🎬", "🎭", "🎫", "movie", "theater", "show", "cinema"}

var (
	showtimePattern = regexp.MustCompile(`(\d{1,2}:\d{2})`)
	pricePattern    = regexp.MustCompile(`(₹\d+)`)
	boldPattern     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emphasisPattern = regexp.MustCompile(`\*(.*?)\*`)
	codePattern     = regexp.MustCompile("`(.*?)`")

	classPattern = regexp.MustCompile(`^[a-z][a-z-]*$`)
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "strong", "em", "code", "span", "div")
	p.AllowAttrs("class").Matching(classPattern).OnElements("span", "div")
	return p
}

// Classify returns the presentation category for text.
func Classify(text string) Category {
	if isSchedule(text) {
		return CategorySchedule
	}
	if isListing(text) {
		return CategoryListing
	}
	return CategoryGeneral
}

// Render classifies text and returns the category with its sanitized markup.
func Render(text string) (Category, string) {
	c := Classify(text)
	return c, RenderAs(c, text)
}

// RenderAs renders text with the transform for category c.
func RenderAs(c Category, text string) string {
	var markup string
	switch c {
	case CategorySchedule:
		markup = renderSchedule(text)
	case CategoryListing:
		markup = renderListing(text)
	default:
		markup = renderGeneral(text)
	}
	return policy.Sanitize(markup)
}

func isSchedule(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range scheduleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isListing(text string) bool {
	return strings.Contains(text, "₹") &&
		(strings.Contains(text, "here are some") || strings.Contains(text, "||"))
}

func renderSchedule(text string) string {
	out := strings.ReplaceAll(text, "\n", "<br>")
	out = strings.ReplaceAll(out, "•", "🎬")
	out = strings.ReplaceAll(out, "📍", "<br>📍")
	out = showtimePattern.ReplaceAllString(out, `<span class="showtime">$1</span>`)
	out = pricePattern.ReplaceAllString(out, `<span class="price">$1</span>`)
	return out
}

// renderListing turns "Title: A (₹100) || B (₹250)" into a card grid.
// Only the text between the first and second colon is treated as the list.
func renderListing(text string) string {
	parts := strings.Split(text, ":")

	var b strings.Builder
	b.WriteString(`<div class="movie-title">`)
	b.WriteString(parts[0])
	b.WriteString(`:</div><br>`)

	if len(parts) < 2 || parts[1] == "" {
		return b.String()
	}

	b.WriteString(`<div class="product-grid">`)
	for _, item := range strings.Split(parts[1], "||") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		name, price := splitProduct(item)
		b.WriteString(`<div class="product-card"><div class="product-name">`)
		b.WriteString(name)
		b.WriteString(`</div><div class="product-price">Price: `)
		b.WriteString(price)
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func splitProduct(item string) (name, price string) {
	fields := strings.Split(item, " (₹")
	name = strings.TrimSpace(fields[0])
	if len(fields) > 1 && fields[1] != "" {
		price = "₹" + strings.Replace(fields[1], ")", "", 1)
	}
	return name, price
}

func renderGeneral(text string) string {
	out := strings.ReplaceAll(text, "\n", "<br>")
	out = boldPattern.ReplaceAllString(out, `<strong>$1</strong>`)
	out = emphasisPattern.ReplaceAllString(out, `<em>$1</em>`)
	out = codePattern.ReplaceAllString(out, `<code>$1</code>`)
	return out
}
