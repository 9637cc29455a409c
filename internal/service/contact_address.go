package service

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

// legal-form words dropped from employer names before building the domain
var companySuffixes = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "corporation": true,
	"co": true, "gmbh": true, "plc": true, "sa": true, "ag": true, "limited": true,
}

// ContactAddress derives first.last@company.com from the candidate's name and most
// recent employer. It is a guess, not a lookup.
func ContactAddress(c *domain.Candidate) (string, error) {
	names := addressTokens(c.Name)
	if len(names) == 0 {
		return "", fmt.Errorf("%w: candidate has no usable name", domain.ErrAddressUnknown)
	}

	company := addressTokens(c.MostRecentEmployer())
	for len(company) > 1 && companySuffixes[company[len(company)-1]] {
		company = company[:len(company)-1]
	}
	if len(company) == 0 {
		return "", fmt.Errorf("%w: no employer for %s", domain.ErrAddressUnknown, c.Name)
	}

	local := names[0]
	if len(names) > 1 {
		local += "." + names[len(names)-1]
	}

	return local + "@" + strings.Join(company, "") + ".com", nil
}

// addressTokens folds accents, lowercases and keeps the [a-z0-9] runs of each word
func addressTokens(s string) []string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		folded = s
	}

	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(folded)) {
		var b strings.Builder
		for _, r := range word {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
		}
	}
	return tokens
}
