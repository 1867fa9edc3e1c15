package scan

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Guess is one proposed transaction parsed from OCR text lines or bill
// text. Category and Tags are defaults the parser could infer; they ride
// along into the review queue.
type Guess struct {
	Date        time.Time
	Description string
	Amount      float64
	Category    string
	Tags        []string
	RawText     string
}

var (
	// "14:28" and OCR noise like "12*35".
	timeNoiseRe = regexp.MustCompile(`\d{1,2}[:*.,]\d{2}\b`)
	// "49,90", "~35,97", "-13,95", optionally followed by a euro sign.
	ocrAmountRe = regexp.MustCompile(`([~-]?)\s*(\d+[.,]\d{2})\s*€?`)
	dayMonthRe  = regexp.MustCompile(`(\d{1,2})\s+([a-z]{3})`)
	monthYearRe = regexp.MustCompile(`^[a-z]+ \d{4}$`)
)

var ocrIgnoreTerms = map[string]struct{}{
	"transazioni": {}, "totale": {}, "spese": {}, "entrate": {},
	"febbraio": {}, "gennaio": {}, "dicembre": {},
}

var italianMonths = map[string]time.Month{
	"gen": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "mag": time.May, "giu": time.June,
	"lug": time.July, "ago": time.August, "set": time.September,
	"ott": time.October, "nov": time.November, "dic": time.December,
}

// GuessScreenshot walks OCR lines sequentially, pairing each description
// line with the amount line that follows it under the most recent date
// header. Amount lines with no pending description are daily totals and
// are dropped. Everything is a best-effort guess for the review queue.
func GuessScreenshot(lines []string, today time.Time) []Guess {
	var out []Guess

	currentDate := today
	pendingDesc := ""
	havePending := false

	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)

		if _, ok := ocrIgnoreTerms[lower]; ok {
			continue
		}

		if d, ok := parseDateHeader(lower, today); ok {
			currentDate = d
			// A description left dangling before a date header is an orphan.
			havePending = false
			continue
		}

		m := ocrAmountRe.FindStringSubmatch(strings.ReplaceAll(text, " ", ""))
		if m == nil {
			m = ocrAmountRe.FindStringSubmatch(text)
		}
		if m != nil {
			if !havePending {
				// Daily total or list header.
				continue
			}
			val, _ := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", "."), 64)
			// Unsigned amounts in these lists are expenses too.
			val = -val

			desc := timeNoiseRe.ReplaceAllString(pendingDesc, "")
			desc = strings.TrimSpace(strings.ReplaceAll(desc, "*", ""))
			if len(desc) > 1 {
				out = append(out, Guess{
					Date:        currentDate,
					Description: desc,
					Amount:      val,
					RawText:     pendingDesc + " | " + text,
				})
			}
			havePending = false
			continue
		}

		// Month-year headers ("dicembre 2025") are not descriptions.
		if monthYearRe.MatchString(lower) {
			continue
		}
		pendingDesc = text
		havePending = true
	}
	return out
}

func parseDateHeader(lower string, today time.Time) (time.Time, bool) {
	switch lower {
	case "oggi":
		return today, true
	case "ieri":
		return today.AddDate(0, 0, -1), true
	}
	m := dayMonthRe.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := italianMonths[m[2]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location()), true
}
