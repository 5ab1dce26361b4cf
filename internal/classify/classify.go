package classify

import (
	"strings"
	"unicode"
)

// Participant is a classified mail participant
type Participant struct {
	Address  string // address as seen on the message
	Name     string // display name from the source record, may be empty
	Display  string // short "First L" style form used for wikilinks
	Internal bool
}

// Classifier decides whether addresses belong to the configured
// internal domains and derives short display names
type Classifier struct {
	domains []string
}

// New creates a classifier for the given internal domain list.
// Domains are matched case-insensitively; subdomains of a configured
// domain count as internal too.
func New(domains []string) *Classifier {
	cleaned := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			cleaned = append(cleaned, d)
		}
	}
	return &Classifier{domains: cleaned}
}

// Classify builds a Participant from an address and an optional
// display name taken from the message headers
func (c *Classifier) Classify(address, name string) Participant {
	address = strings.TrimSpace(address)
	name = strings.TrimSpace(name)

	return Participant{
		Address:  address,
		Name:     name,
		Display:  shortName(name, address),
		Internal: c.IsInternal(address),
	}
}

// IsInternal reports whether the address belongs to one of the
// configured internal domains. Addresses without a domain part are
// never internal.
func (c *Classifier) IsInternal(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))

	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return false
	}
	domain := address[at+1:]

	for _, d := range c.domains {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// shortName derives the "First L" form: first name plus the initial of
// the last name. Falls back to the address local part when no usable
// name is present ("jane.doe@..." -> "Jane D").
func shortName(name, address string) string {
	tokens := splitNameTokens(name)

	switch {
	case len(tokens) >= 2:
		return capitalize(tokens[0]) + " " + initial(tokens[len(tokens)-1])
	case len(tokens) == 1:
		return capitalize(tokens[0])
	}

	local := address
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	local = strings.TrimSpace(local)
	if local == "" {
		return "Unknown"
	}

	parts := splitNonEmpty(local, ".")
	if len(parts) >= 2 {
		return capitalize(parts[0]) + " " + initial(parts[len(parts)-1])
	}
	return capitalize(local)
}

// splitNameTokens splits a display name on whitespace and commas
func splitNameTokens(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// splitNonEmpty splits on sep and drops empty pieces
func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// capitalize upper-cases the first rune and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// initial returns the upper-cased first rune of a token
func initial(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}
