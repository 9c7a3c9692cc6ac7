package expr

import (
	"strconv"
	"strings"
	"time"

	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// dateTimeLayout is the xsd:dateTime lexical form this engine produces;
// parsing accepts the wider set of layouts dateTimeLayouts lists, since
// stored literals may have come from any RFC 3339-compatible source.
const dateTimeLayout = "2006-01-02T15:04:05Z07:00"

var dateTimeLayouts = []string{
	dateTimeLayout,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
}

func parseDateTime(lex string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, lex); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateTimePart extracts field index 0..5 (year,month,day,hour,minute,second)
// from an xsd:dateTime lexical form.
func dateTimePart(lex string, field int) (int64, bool) {
	t, ok := parseDateTime(lex)
	if !ok {
		return 0, false
	}
	switch field {
	case 0:
		return int64(t.Year()), true
	case 1:
		return int64(t.Month()), true
	case 2:
		return int64(t.Day()), true
	case 3:
		return int64(t.Hour()), true
	case 4:
		return int64(t.Minute()), true
	case 5:
		return int64(t.Second()), true
	default:
		return 0, false
	}
}

func dateTimeZone(lex string) string {
	t, ok := parseDateTime(lex)
	if !ok {
		return ""
	}
	name, offset := t.Zone()
	if offset == 0 && (name == "UTC" || name == "Z") {
		return "PT0S"
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	h, m := offset/3600, (offset%3600)/60
	if m == 0 {
		return sign + "PT" + strconv.Itoa(h) + "H"
	}
	return sign + "PT" + strconv.Itoa(h) + "H" + strconv.Itoa(m) + "M"
}

func dateField(v value.Value, f func(string) (int64, bool)) value.Value {
	t := termOf(v)
	if t.Kind() != rdf.Literal {
		return value.UnboundValue
	}
	n, ok := f(t.Lexical())
	if !ok {
		return value.UnboundValue
	}
	return value.NewInt64(n)
}

// castTo implements the XSD constructor-function casts spec.md §4.9
// requires: xsd:integer/decimal/double/boolean/string applied as a function
// call, e.g. xsd:integer("42").
func castTo(datatypeIRI string, v value.Value) value.Value {
	switch datatypeIRI {
	case rdf.XSDInteger:
		return castInteger(v)
	case rdf.XSDDecimal, rdf.XSDDouble, "http://www.w3.org/2001/XMLSchema#float":
		return castDouble(v)
	case rdf.XSDBoolean:
		return castBoolean(v)
	case rdf.XSDString:
		return castString(v)
	default:
		return value.UnboundValue
	}
}

func castInteger(v value.Value) value.Value {
	switch v.Kind() {
	case value.Int64:
		return v
	case value.F64:
		return value.NewInt64(int64(v.F64()))
	case value.Bool:
		if v.Bool() {
			return value.NewInt64(1)
		}
		return value.NewInt64(0)
	case value.Str:
		s := strings.TrimSpace(v.Str())
		if strings.ContainsAny(s, ".eE") {
			return value.UnboundValue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.UnboundValue
		}
		return value.NewInt64(n)
	default:
		return value.UnboundValue
	}
}

func castDouble(v value.Value) value.Value {
	switch v.Kind() {
	case value.Int64:
		return value.NewF64(float64(v.Int64()))
	case value.F64:
		return v
	case value.Bool:
		if v.Bool() {
			return value.NewF64(1)
		}
		return value.NewF64(0)
	case value.Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return value.UnboundValue
		}
		return value.NewF64(f)
	default:
		return value.UnboundValue
	}
}

func castBoolean(v value.Value) value.Value {
	switch v.Kind() {
	case value.Bool:
		return v
	case value.Int64:
		return value.NewBool(v.Int64() != 0)
	case value.F64:
		return value.NewBool(v.F64() != 0)
	case value.Str:
		switch strings.TrimSpace(v.Str()) {
		case "true", "1":
			return value.NewBool(true)
		case "false", "0":
			return value.NewBool(false)
		default:
			return value.UnboundValue
		}
	default:
		return value.UnboundValue
	}
}

func castString(v value.Value) value.Value {
	if v.IsUnbound() {
		return value.UnboundValue
	}
	return value.NewStr(strOf(v))
}
