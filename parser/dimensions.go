package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-artists/models"
)

var (
	inchGlyphs = regexp.MustCompile(`″|”|“|"|''`)
	unitWord   = regexp.MustCompile(`(?i)(^|[^a-z])(inch(?:es)?|in|centimet(?:er|re)s?|cm|millimet(?:er|re)s?|mm)(\.|[^a-z]|$)`)
	axisLabel  = regexp.MustCompile(`(?i)\(\s*[lwhd]\s*\)|(\d)\s*[lwhd]\b|\b[lwhd]\s*[:.]?\s*(\d)`)
	dimSplit   = regexp.MustCompile(`(?i)\s*(?:×|x|\bby\b)\s*`)
	leadingNum = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)`)
)

// ParseDimensions parses strings such as `24 x 36 in`, `30×40cm` or
// `12" (H) by 9" (W)`. It returns nil when no number is found.
func ParseDimensions(raw string) *models.ParsedDimensions {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	unit := detectUnit(raw)

	cleaned := unitWord.ReplaceAllString(raw, "$1 $3")
	cleaned = inchGlyphs.ReplaceAllString(cleaned, " ")
	cleaned = axisLabel.ReplaceAllString(cleaned, "$1$2")

	var numbers []float64
	for _, segment := range dimSplit.Split(cleaned, -1) {
		if n, ok := leadingFloat(segment); ok {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	dims := &models.ParsedDimensions{Unit: unit}
	dims.Length = &numbers[0]
	if len(numbers) > 1 {
		dims.Width = &numbers[1]
	}
	if len(numbers) > 2 {
		dims.Height = &numbers[2]
	}
	return dims
}

func detectUnit(raw string) models.DimensionUnit {
	glyph := inchGlyphs.FindStringIndex(raw)
	word := unitWord.FindStringSubmatchIndex(raw)

	if word != nil && (glyph == nil || word[4] < glyph[0]) {
		token := strings.ToLower(raw[word[4]:word[5]])
		switch {
		case token == "cm" || strings.HasPrefix(token, "centi"):
			return models.UnitCentimeters
		case token == "mm" || strings.HasPrefix(token, "milli"):
			return models.UnitMillimeters
		}
		return models.UnitInches
	}
	return models.UnitInches
}

// leadingFloat parses the numeric prefix of s, ignoring what follows.
func leadingFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	match := leadingNum.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
