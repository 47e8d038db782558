package ranking

import (
	"regexp"
	"strconv"
	"strings"
)

// Digit groups, commas allowed as thousands separators. A token has to
// start with a digit so stray commas in the text are not picked up.
var salaryNumber = regexp.MustCompile(`\d[\d,]*`)

// ParseSalary collapses a free-text salary into one representative number:
// the mean of every digit group found. "₹15,000 - ₹20,000/month" gives 17500.
// Text without digits parses to 0.
func ParseSalary(salary string) float64 {
	tokens := salaryNumber.FindAllString(salary, -1)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	parsed := 0
	for _, token := range tokens {
		n, err := strconv.ParseInt(strings.ReplaceAll(token, ",", ""), 10, 64)
		if err != nil {
			// overflow only
			continue
		}
		sum += float64(n)
		parsed++
	}

	if parsed == 0 {
		return 0
	}

	return sum / float64(parsed)
}
