// Package extract turns a fetched article page into a bounded block of
// readable text.
package extract

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/sift/internal/scraper"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const (
	DefaultTimeout = 10 * time.Second

	// MinLength and MaxLength bound the extracted text, in characters.
	MinLength = 300
	MaxLength = 1200

	minParagraph = 30
	minBlock     = 100
	minLine      = 40
	minParts     = 3
)

var (
	removedTags = "script, style, nav, footer, header, aside, form, iframe, noscript, svg, button"

	noiseRe   = regexp.MustCompile(`(?i)(sidebar|menu|nav|footer|header|comment|popup|modal|cookie|banner|widget|social)`)
	adTokenRe = regexp.MustCompile(`(?i)^ads?$`)

	spaceRe       = regexp.MustCompile(`[ \t]+`)
	boilerplateRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)cookie[s]?\s*(policy|consent|settings)`),
		regexp.MustCompile(`(?i)accept\s*(all\s*)?cookies`),
		regexp.MustCompile(`(?i)privacy\s*policy`),
		regexp.MustCompile(`(?i)terms\s*(of|and)\s*(service|use)`),
		regexp.MustCompile(`(?i)subscribe\s*to`),
		regexp.MustCompile(`(?i)sign\s*up\s*for`),
		regexp.MustCompile(`(?i)©\s*\d{4}`),
		regexp.MustCompile(`(?i)all\s*rights\s*reserved`),
		regexp.MustCompile(`(?i)skip\s*to\s*(main\s*)?content`),
		regexp.MustCompile(`(?i)share\s*(this|on)`),
		regexp.MustCompile(`(?i)leave\s*a\s*(reply|comment)`),
		regexp.MustCompile(`(?i)your\s*email.*published`),
	}

	protectedTags = map[string]bool{"html": true, "body": true, "main": true, "article": true}
)

// Fetcher retrieves a page.
type Fetcher interface {
	Get(ctx context.Context, targetURL string) (*scraper.Response, error)
}

// RobotsChecker decides whether a URL may be fetched.
type RobotsChecker interface {
	Allowed(ctx context.Context, pageURL, agent string) (bool, error)
}

// Config configures an Extractor.
type Config struct {
	Timeout time.Duration
	// UserAgent is the token matched against robots.txt groups.
	UserAgent string
}

// Extractor fetches pages and extracts their main text. Every failure
// yields "".
type Extractor struct {
	fetcher Fetcher
	robots  RobotsChecker
	config  Config
	logger  *slog.Logger
}

// New creates an Extractor. robots may be nil to skip robots.txt checks.
func New(f Fetcher, robots RobotsChecker, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fetcher: f, robots: robots, config: cfg, logger: logger}
}

// Extract returns the cleaned text of the page at pageURL, or "" when the
// page is unreachable, not HTML, or too short to be useful.
func (e *Extractor) Extract(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	if e.robots != nil {
		allowed, err := e.robots.Allowed(ctx, pageURL, e.config.UserAgent)
		if err == nil && !allowed {
			e.logger.Debug("extraction disallowed by robots.txt", "url", pageURL)
			return ""
		}
	}

	resp, err := e.fetcher.Get(ctx, pageURL)
	if err != nil {
		e.logger.Debug("extraction fetch failed", "url", pageURL, "err", err)
		return ""
	}
	if resp.StatusCode >= http.StatusBadRequest || resp.Blocked {
		e.logger.Debug("extraction skipped", "url", pageURL, "status", resp.StatusCode, "blocked_by", resp.BlockedBy)
		return ""
	}
	if ct := resp.ContentType(); ct != "text/html" && !strings.HasPrefix(ct, "application/xhtml") {
		return ""
	}

	return FromHTML(resp.Body, resp.URL)
}

// FromHTML extracts bounded, cleaned text from an HTML document.
func FromHTML(body []byte, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	meta := metaDescription(doc)

	doc.Find(removedTags).Remove()
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		if protectedTags[goquery.NodeName(s)] {
			return
		}
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if isNoise(class) || isNoise(id) {
			s.Remove()
		}
	})

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); runeLen(t) > minParagraph {
			parts = append(parts, t)
		}
	})

	if len(parts) < minParts {
		if block := largestBlock(doc); block != "" {
			parts = append(parts, block)
		} else if text := readableText(body, pageURL); text != "" {
			parts = append(parts, text)
		}
	}

	raw := strings.Join(parts, "\n")
	if meta != "" {
		raw = meta + "\n" + raw
	}
	return Bound(Clean(raw))
}

func isNoise(attr string) bool {
	if attr == "" {
		return false
	}
	if noiseRe.MatchString(attr) {
		return true
	}
	for _, tok := range strings.FieldsFunc(attr, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t' || r == '\n'
	}) {
		if adTokenRe.MatchString(tok) {
			return true
		}
	}
	return false
}

func metaDescription(doc *goquery.Document) string {
	var texts []string
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`, `meta[name="twitter:description"]`} {
		content, ok := doc.Find(sel).First().Attr("content")
		if !ok {
			continue
		}
		content = strings.TrimSpace(content)
		if content == "" || slices.Contains(texts, content) {
			continue
		}
		texts = append(texts, content)
	}
	return strings.Join(texts, " ")
}

// largestBlock returns the longest article or main element text above the
// minimum block size.
func largestBlock(doc *goquery.Document) string {
	var best string
	doc.Find("article, main").Each(func(_ int, s *goquery.Selection) {
		t := strings.Join(strings.Fields(s.Text()), " ")
		if runeLen(t) > minBlock && runeLen(t) > runeLen(best) {
			best = t
		}
	})
	return best
}

func readableText(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// Clean collapses horizontal whitespace, strips boilerplate phrases and
// drops lines shorter than 40 characters.
func Clean(raw string) string {
	text := spaceRe.ReplaceAllString(raw, " ")
	for _, re := range boilerplateRe {
		text = re.ReplaceAllString(text, "")
	}

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if runeLen(l) >= minLine {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// Bound enforces the length limits: text under MinLength becomes "", text
// over MaxLength is truncated, preferring a sentence end past the midpoint.
func Bound(text string) string {
	r := []rune(text)
	if len(r) < MinLength {
		return ""
	}
	if len(r) <= MaxLength {
		return text
	}
	r = r[:MaxLength]
	for i := len(r) - 1; i > MaxLength/2; i-- {
		if r[i] == '.' {
			return string(r[:i+1])
		}
	}
	return string(r)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
