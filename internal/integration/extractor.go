package integration

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extraction holds the fields recovered from a gauge page; any of them may be missing
type Extraction struct {
	WaterLevel  *int
	Temperature *float64
	LastUpdate  *string
}

// ReadingExtractor turns a raw gauge document into reading fields
type ReadingExtractor interface {
	Extract(doc io.Reader) (Extraction, error)
}

var (
	levelPattern = regexp.MustCompile(`(\d+)\s*см`)
	tempPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[°С]?C?`)
	datePattern  = regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4})`)
)

// temperatureLabel must appear (case-insensitively) in an element before a number in it is taken as a temperature
const temperatureLabel = "температур"

// PatternExtractor scans text-bearing elements of an allrivers.info style page.
// It knows nothing about the page structure: the level is the first "<n> см",
// the temperature the first number in an element labelled as temperature,
// and the update date the last dd.mm.yyyy found in document order.
type PatternExtractor struct{}

// NewPatternExtractor creates the default heuristic extractor
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract parses the document and applies the text patterns
func (e *PatternExtractor) Extract(doc io.Reader) (Extraction, error) {
	parsed, err := goquery.NewDocumentFromReader(doc)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to parse the gauge page: %w", err)
	}

	var result Extraction
	parsed.Find("td, div, span").Each(func(_ int, s *goquery.Selection) {
		text := strippedText(s)
		if text == "" {
			return
		}

		if result.WaterLevel == nil {
			if m := levelPattern.FindStringSubmatch(text); m != nil {
				if level, err := strconv.Atoi(m[1]); err == nil {
					result.WaterLevel = &level
				}
			}
		}

		if result.Temperature == nil && strings.Contains(strings.ToLower(text), temperatureLabel) {
			if m := tempPattern.FindStringSubmatch(text); m != nil {
				if temp, err := strconv.ParseFloat(m[1], 64); err == nil {
					result.Temperature = &temp
				}
			}
		}

		if m := datePattern.FindStringSubmatch(text); m != nil {
			date := m[1]
			result.LastUpdate = &date
		}
	})

	return result, nil
}

// strippedText joins the trimmed text nodes under s without separators
func strippedText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(strings.TrimSpace(c.Text()))
		case "#comment", "script", "style":
		default:
			b.WriteString(strippedText(c))
		}
	})
	return b.String()
}
