package ocr

import (
	"regexp"
	"strings"
)

const unreadableMessage = "OCR could not extract readable text from this image.\n\n" +
	"The text appears to be too stylized, decorative, or low resolution for accurate recognition.\n\n" +
	"Try using:\n• Plain text documents\n• Screenshots with simple fonts\n• High-contrast images\n• Less decorative text styles"

var (
	realWordRe    = regexp.MustCompile(`\b[A-Za-z]{3,}\b`)
	weirdCharRe   = regexp.MustCompile(`[¥€£™®©§¶†‡•…‰′″‹›«»]`)
	symbolRe      = regexp.MustCompile(`[^\w\s]`)
	socialNoiseRe = regexp.MustCompile(`(?i)^\d+(\.\d+)?[km]?\s*(like|follow|view|share)s?$`)
	uiNoiseRe     = regexp.MustCompile(`(?i)^(manage|edit|more)$`)
	handleRe      = regexp.MustCompile(`^@[a-z0-9_]+$`)
	letterRe      = regexp.MustCompile(`[A-Za-z]`)
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+`)
)

// FilterText cleans engine output for screenshot-style inputs. Garbled output
// is replaced with a guidance message, UI chrome lines are dropped, and the
// result is capped at 20 lines.
func FilterText(text string) string {
	realWords := realWordRe.FindAllString(text, -1)
	weirdChars := len(weirdCharRe.FindAllString(text, -1))
	symbolRatio := 0.0
	if len(text) > 0 {
		symbolRatio = float64(len(symbolRe.FindAllString(text, -1))) / float64(len(text))
	}

	if len(realWords) < 3 && (weirdChars > 5 || symbolRatio > 0.6) {
		return unreadableMessage
	}

	var clean []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if socialNoiseRe.MatchString(line) || uiNoiseRe.MatchString(line) || handleRe.MatchString(strings.ToLower(line)) {
			continue
		}
		if len(letterRe.FindAllString(line, -1)) < 2 {
			continue
		}
		clean = append(clean, line)
		if len(clean) == 20 {
			break
		}
	}
	return strings.TrimSpace(strings.Join(clean, "\n"))
}

// EstimateConfidence scores extracted text from 50 to 99 based on word
// structure, sentence shape and symbol noise. Empty text scores zero.
func EstimateConfidence(text string) int {
	if len(text) == 0 {
		return 0
	}

	confidence := 75

	words := CountWords(text)
	if words > 10 {
		confidence += 5
	}
	if words > 30 {
		confidence += 5
	}

	properWords := len(realWordRe.FindAllString(text, -1))
	totalTokens := len(strings.Fields(text))
	if totalTokens < 1 {
		totalTokens = 1
	}
	confidence += int(float64(properWords) / float64(totalTokens) * 15)

	var sentences int
	for _, s := range sentenceSplit.Split(text, -1) {
		if len(strings.TrimSpace(s)) > 10 {
			sentences++
		}
	}
	if sentences > 0 {
		confidence += 5
	}
	if sentences > 2 {
		confidence += 5
	}

	symbolRatio := float64(len(symbolRe.FindAllString(text, -1))) / float64(len(text))
	if symbolRatio < 0.1 {
		confidence += 10
	} else if symbolRatio < 0.2 {
		confidence += 5
	}

	if capitalizedRe.MatchString(text) {
		confidence += 5
	}

	if confidence > 99 {
		return 99
	}
	if confidence < 50 {
		return 50
	}
	return confidence
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// finishResult applies optional filtering and fills the derived fields.
func finishResult(raw string, filter bool, engine string) *Result {
	text := raw
	if filter && raw != "" {
		if filtered := FilterText(raw); filtered != "" {
			text = filtered
		}
	}

	result := &Result{
		Text:       text,
		Confidence: EstimateConfidence(raw),
		WordCount:  CountWords(text),
		Engine:     engine,
	}
	if text != raw {
		result.RawText = raw
	}
	return result
}
