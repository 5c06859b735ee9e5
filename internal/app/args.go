package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxMessageLen = 4000

// splitArgs splits command arguments on whitespace into at most n parts. The
// last part keeps the rest of the line.
func splitArgs(s string, n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, 0, n)
	rest := strings.TrimSpace(s)
	for rest != "" && len(out) < n-1 {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, rest[:i])
		rest = strings.TrimSpace(rest[i:])
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

// parseScoreArgs reads "teamID s1 s2 ...". A comma is accepted as the decimal
// separator.
func parseScoreArgs(s string) (string, []float64, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return "", nil, errors.New("give a team id and at least one score")
	}
	scores := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(strings.Replace(f, ",", ".", 1), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a number", f)
		}
		scores = append(scores, v)
	}
	return fields[0], scores, nil
}

func truncate(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n\n(truncated, too much text)"
}
