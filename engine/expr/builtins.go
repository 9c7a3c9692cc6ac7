package expr

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/badwolf-labs/sparqlcore/engine/value"
	"github.com/badwolf-labs/sparqlcore/query"
	"github.com/badwolf-labs/sparqlcore/rdf"
)

// upperCaser/lowerCaser implement SPARQL's UCASE/LCASE with Unicode default
// case conversion (language.Und: no locale-specific tailoring, since SPARQL
// itself does not carry a case-conversion locale), rather than the
// byte-wise-ASCII-biased strings.ToUpper/ToLower.
var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// evalFuncCall dispatches a built-in function or XSD cast (spec.md §4.9).
// Name is upper-cased by the parser for built-ins, or an xsd: datatype IRI
// for casts (e.g. "http://www.w3.org/2001/XMLSchema#integer").
func evalFuncCall(n query.FuncCall, env Env) value.Value {
	if strings.HasPrefix(n.Name, "http://www.w3.org/2001/XMLSchema#") {
		if len(n.Args) != 1 {
			return value.UnboundValue
		}
		return castTo(n.Name, Eval(n.Args[0], env))
	}

	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = Eval(a, env)
	}

	switch n.Name {
	case "BOUND":
		if vr, ok := n.Args[0].(query.VarRef); ok {
			_, bound := env.Lookup(vr.Name)
			return value.NewBool(bound)
		}
		return value.NewBool(!args[0].IsUnbound())

	case "IF":
		b, ok := EffectiveBoolean(args[0])
		if !ok {
			return value.UnboundValue
		}
		if b {
			return args[1]
		}
		return args[2]

	case "COALESCE":
		for _, a := range args {
			if !a.IsUnbound() {
				return a
			}
		}
		return value.UnboundValue

	case "NOT":
		b, ok := EffectiveBoolean(args[0])
		if !ok {
			return value.UnboundValue
		}
		return value.NewBool(!b)

	case "IRI", "URI":
		if args[0].Kind() == value.IRI {
			return args[0]
		}
		if args[0].Kind() == value.Str {
			return value.NewIRI(args[0].Str())
		}
		return value.UnboundValue

	case "STR":
		switch args[0].Kind() {
		case value.IRI:
			return value.NewStr(args[0].Str())
		case value.Str:
			return value.NewStr(args[0].Str())
		case value.Int64, value.F64, value.Bool:
			t, err := args[0].ToTerm()
			if err != nil {
				return value.UnboundValue
			}
			return value.NewStr(t.Lexical())
		default:
			return value.UnboundValue
		}

	case "DATATYPE":
		t := termOf(args[0])
		if t.Kind() != rdf.Literal {
			return value.UnboundValue
		}
		if t.IsLangTagged() {
			return value.NewIRI(rdf.RDFLangString)
		}
		return value.NewIRI(t.Datatype())

	case "LANG":
		t := termOf(args[0])
		if t.Kind() == rdf.Literal {
			return value.NewStr(t.Lang())
		}
		return value.NewStr("")

	case "LANGMATCHES":
		return value.NewBool(langMatches(strOf(args[0]), strOf(args[1])))

	case "ISIRI", "ISURI":
		return value.NewBool(termOf(args[0]).Kind() == rdf.IRI)

	case "ISBLANK":
		return value.NewBool(termOf(args[0]).Kind() == rdf.BlankNode)

	case "ISLITERAL":
		return value.NewBool(termOf(args[0]).Kind() == rdf.Literal)

	case "ISNUMERIC":
		return value.NewBool(args[0].Kind() == value.Int64 || args[0].Kind() == value.F64)

	case "STRLEN":
		return value.NewInt64(int64(len([]rune(strOf(args[0])))))

	case "UCASE":
		return carryLang(value.NewStr(upperCaser.String(strOf(args[0]))), args[0])

	case "LCASE":
		return carryLang(value.NewStr(lowerCaser.String(strOf(args[0]))), args[0])

	case "SUBSTR":
		s := []rune(strOf(args[0]))
		start := int(intArg(args[1])) - 1
		if start < 0 {
			start = 0
		}
		length := len(s) - start
		if len(args) > 2 {
			length = int(intArg(args[2]))
		}
		if start >= len(s) || length <= 0 {
			return carryLang(value.NewStr(""), args[0])
		}
		end := start + length
		if end > len(s) {
			end = len(s)
		}
		return carryLang(value.NewStr(string(s[start:end])), args[0])

	case "STRSTARTS":
		return value.NewBool(strings.HasPrefix(strOf(args[0]), strOf(args[1])))

	case "STRENDS":
		return value.NewBool(strings.HasSuffix(strOf(args[0]), strOf(args[1])))

	case "CONTAINS":
		return value.NewBool(strings.Contains(strOf(args[0]), strOf(args[1])))

	case "STRBEFORE":
		s, sep := strOf(args[0]), strOf(args[1])
		if i := strings.Index(s, sep); i >= 0 {
			return carryLang(value.NewStr(s[:i]), args[0])
		}
		return value.NewStr("")

	case "STRAFTER":
		s, sep := strOf(args[0]), strOf(args[1])
		if i := strings.Index(s, sep); i >= 0 {
			return carryLang(value.NewStr(s[i+len(sep):]), args[0])
		}
		return value.NewStr("")

	case "CONCAT":
		var b strings.Builder
		for _, a := range args {
			b.WriteString(strOf(a))
		}
		return value.NewStr(b.String())

	case "REPLACE":
		return replaceFn(args)

	case "REGEX":
		flags := ""
		if len(args) > 2 {
			flags = strOf(args[2])
		}
		re, err := compileRegex(strOf(args[1]), flags)
		if err != nil {
			return value.UnboundValue
		}
		return value.NewBool(re.MatchString(strOf(args[0])))

	case "ENCODE_FOR_URI":
		return value.NewStr(encodeForURI(strOf(args[0])))

	case "STRDT":
		return value.NewStrFromTerm(strOf(args[0]), rdf.NewLiteral(strOf(args[0]), strOf(args[1])))

	case "STRLANG":
		return value.NewStrFromTerm(strOf(args[0]), rdf.NewLangLiteral(strOf(args[0]), strOf(args[1])))

	case "ABS":
		return absValue(args[0])

	case "CEIL":
		return roundValue(args[0], math.Ceil)

	case "FLOOR":
		return roundValue(args[0], math.Floor)

	case "ROUND":
		return roundValue(args[0], math.Round)

	case "RAND":
		return value.NewF64(rand.Float64())

	case "NOW":
		return value.NewStrFromTerm("", rdf.NewLiteral(env.Now().Format(dateTimeLayout), rdf.XSDDateTime))

	case "YEAR":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 0) })
	case "MONTH":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 1) })
	case "DAY":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 2) })
	case "HOURS":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 3) })
	case "MINUTES":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 4) })
	case "SECONDS":
		return dateField(args[0], func(t string) (int64, bool) { return dateTimePart(t, 5) })
	case "TIMEZONE", "TZ":
		return value.NewStr(dateTimeZone(strOf(args[0])))

	case "MD5":
		sum := md5.Sum([]byte(strOf(args[0])))
		return value.NewStr(fmt.Sprintf("%x", sum))
	case "SHA1":
		sum := sha1.Sum([]byte(strOf(args[0])))
		return value.NewStr(fmt.Sprintf("%x", sum))
	case "SHA256":
		sum := sha256.Sum256([]byte(strOf(args[0])))
		return value.NewStr(fmt.Sprintf("%x", sum))
	case "SHA384":
		sum := sha512.Sum384([]byte(strOf(args[0])))
		return value.NewStr(fmt.Sprintf("%x", sum))
	case "SHA512":
		sum := sha512.Sum512([]byte(strOf(args[0])))
		return value.NewStr(fmt.Sprintf("%x", sum))

	case "UUID":
		return value.NewIRI("urn:uuid:" + uuid.New().String())
	case "STRUUID":
		return value.NewStr(uuid.New().String())

	case "BNODE":
		if len(args) == 0 {
			return value.NewStrFromTerm("", rdf.NewBlankNode("b"+uuid.NewString()))
		}
		label := env.NextBlankNodeLabel(strOf(args[0]))
		return value.NewStrFromTerm("", rdf.NewBlankNode(label))

	case "SAMETERM":
		return value.NewBool(termOf(args[0]).Equal(termOf(args[1])))

	default:
		return value.UnboundValue
	}
}

// intArg coerces a numeric argument to an int64 for functions like SUBSTR
// that take XPath numeric-literal positions (fractional positions floor).
func intArg(v value.Value) int64 {
	switch v.Kind() {
	case value.Int64:
		return v.Int64()
	case value.F64:
		return int64(math.Floor(v.F64()))
	default:
		return 0
	}
}

func strOf(v value.Value) string {
	switch v.Kind() {
	case value.Str, value.IRI:
		return v.Str()
	case value.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case value.F64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	case value.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// carryLang propagates src's language tag onto a freshly computed string
// value, matching SPARQL's rule that string functions preserve a lang tag
// when it is unambiguous to do so (spec.md §4.9).
func carryLang(v value.Value, src value.Value) value.Value {
	if lang := src.Lang(); lang != "" {
		return value.NewStrFromTerm(v.Str(), rdf.NewLangLiteral(v.Str(), lang))
	}
	return v
}

func langMatches(lang, rng string) bool {
	if rng == "*" {
		return lang != ""
	}
	lang, rng = strings.ToLower(lang), strings.ToLower(rng)
	if lang == rng {
		return true
	}
	return strings.HasPrefix(lang, rng+"-")
}

func replaceFn(args []value.Value) value.Value {
	s := strOf(args[0])
	flags := ""
	if len(args) > 3 {
		flags = strOf(args[3])
	}
	re, err := compileRegex(strOf(args[1]), flags)
	if err != nil {
		return value.UnboundValue
	}
	repl := translateReplacement(strOf(args[2]))
	return carryLang(value.NewStr(re.ReplaceAllString(s, repl)), args[0])
}

// translateReplacement rewrites SPARQL/XPath "$1"-style backreferences into
// Go regexp's "${1}" form.
func translateReplacement(r string) string {
	var b strings.Builder
	for i := 0; i < len(r); i++ {
		if r[i] == '$' && i+1 < len(r) && r[i+1] >= '0' && r[i+1] <= '9' {
			j := i + 1
			for j < len(r) && r[j] >= '0' && r[j] <= '9' {
				j++
			}
			b.WriteString("${" + r[i+1:j] + "}")
			i = j - 1
			continue
		}
		b.WriteByte(r[i])
	}
	return b.String()
}

func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var inline string
	for _, f := range flags {
		switch f {
		case 'i':
			inline += "i"
		case 's':
			inline += "s"
		case 'm':
			inline += "m"
		case 'x':
			pattern = stripExtendedWhitespace(pattern)
		}
	}
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func stripExtendedWhitespace(pattern string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
		case c == '[':
			inClass = true
			b.WriteByte(c)
		case c == ']':
			inClass = false
			b.WriteByte(c)
		case !inClass && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			// skip
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func encodeForURI(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if isUnreservedURIByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreservedURIByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func absValue(v value.Value) value.Value {
	switch v.Kind() {
	case value.Int64:
		i := v.Int64()
		if i < 0 {
			return value.NewInt64(-i)
		}
		return v
	case value.F64:
		return value.NewF64(math.Abs(v.F64()))
	default:
		return value.UnboundValue
	}
}

func roundValue(v value.Value, op func(float64) float64) value.Value {
	switch v.Kind() {
	case value.Int64:
		return v
	case value.F64:
		return value.NewF64(op(v.F64()))
	default:
		return value.UnboundValue
	}
}
