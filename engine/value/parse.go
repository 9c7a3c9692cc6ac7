package value

import (
	"math"
	"strconv"
	"strings"
)

// parseInt parses an xsd:integer lexical form strictly: no '.', 'e', or 'E',
// matching spec.md §4.9's cast rule ("reject strings with .eE").
func parseInt(lex string) (int64, bool) {
	if strings.ContainsAny(lex, ".eE") {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(lex), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseFloat parses an xsd:decimal/xsd:double lexical form, additionally
// accepting the XSD special tokens INF, -INF, and NaN (spec.md §4.9).
func parseFloat(lex string) (float64, bool) {
	lex = strings.TrimSpace(lex)
	switch lex {
	case "INF", "+INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
