// Package format renders human-facing invoice numbers.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}-{SEQ6}"

var (
	ErrEmptyTemplate   = errors.New("invoice number template is empty")
	ErrInvalidSequence = errors.New("invoice sequence must be positive")
	ErrNoSequenceToken = errors.New("invoice number template has no {SEQ} token")
)

var tokenRe = regexp.MustCompile(`\{([A-Z]+)(\d*)\}`)

var dateTokens = map[string]string{
	"YYYY": "2006",
	"YY":   "06",
	"MM":   "01",
	"DD":   "02",
}

// FormatInvoiceNumber expands {YYYY} {YY} {MM} {DD} from createdAt and
// {SEQ} or {SEQn} (zero padded to n digits) from seq. Any other token is
// an error.
func FormatInvoiceNumber(template string, createdAt time.Time, seq int64) (string, error) {
	if template == "" {
		return "", ErrEmptyTemplate
	}
	if seq <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequence, seq)
	}

	var unknown string
	out := tokenRe.ReplaceAllStringFunc(template, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		name, width := m[1], m[2]
		if layout, ok := dateTokens[name]; ok && width == "" {
			return createdAt.Format(layout)
		}
		if name == "SEQ" {
			n, _ := strconv.Atoi(width)
			return fmt.Sprintf("%0*d", n, seq)
		}
		if unknown == "" {
			unknown = tok
		}
		return tok
	})
	if unknown != "" {
		return "", fmt.Errorf("unknown invoice number token %s in %q", unknown, template)
	}
	return out, nil
}

// SequencePrefix renders the part of template that precedes its {SEQ}
// token. Numbers sharing the prefix belong to one sequence.
func SequencePrefix(template string, createdAt time.Time) (string, error) {
	idx := -1
	for _, loc := range tokenRe.FindAllStringSubmatchIndex(template, -1) {
		if template[loc[2]:loc[3]] == "SEQ" {
			idx = loc[0]
			break
		}
	}
	if idx < 0 {
		return "", ErrNoSequenceToken
	}
	if idx == 0 {
		return "", nil
	}
	return FormatInvoiceNumber(template[:idx], createdAt, 1)
}

// ParseSequence reads the sequence that follows prefix in number. It
// returns 0 when number does not carry one.
func ParseSequence(number, prefix string) int64 {
	rest, ok := strings.CutPrefix(number, prefix)
	if !ok {
		return 0
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	seq, err := strconv.ParseInt(rest[:end], 10, 64)
	if err != nil {
		return 0
	}
	return seq
}
