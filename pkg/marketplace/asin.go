package marketplace

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	bareASIN = regexp.MustCompile(`^[A-Za-z0-9]{10}$`)
	urlASIN  = regexp.MustCompile(`(?i)(?:dp|gp/product|gp/aw/d|exec/obidos/asin)/([A-Z0-9]{10})`)
)

// ParseASIN accepts a bare ASIN or an Amazon product URL and returns the
// ASIN in upper case.
func ParseASIN(s string) (string, error) {
	s = strings.TrimSpace(s)
	if bareASIN.MatchString(s) {
		return strings.ToUpper(s), nil
	}
	if m := urlASIN.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(m[1]), nil
	}
	return "", fmt.Errorf("no ASIN found in %q", s)
}
