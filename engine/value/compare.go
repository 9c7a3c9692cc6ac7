package value

// Equal implements SPARQL "=" semantics (spec.md §4.9): numeric kinds compare
// by promoted numeric value, Bool/Str/IRI compare by kind-matched payload,
// and a kind mismatch simply returns false rather than Unbound (per spec.md:
// "equality returns false" for incompatible types).
func Equal(a, b Value) bool {
	if isNumeric(a.kind) && isNumeric(b.kind) {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		return af == bf
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Bool:
		return a.b == b.b
	case Str, IRI:
		if a.kind == Str && (a.Lang() != b.Lang()) {
			return false
		}
		return a.s == b.s
	case Unbound:
		return false
	default:
		return false
	}
}

// NotEqual implements SPARQL "!=": the logical negation of Equal, except
// spec.md explicitly calls out that a type mismatch yields true (not merely
// !Equal, though here they coincide since Equal already returns false on
// mismatch).
func NotEqual(a, b Value) bool {
	return !Equal(a, b)
}

// Compare implements SPARQL ordering ("<", ">", "<=", ">="): numeric kinds
// order by promoted value, Str orders lexicographically (same language tag
// required, else ordering is undefined), Bool orders false < true. ok is
// false when ordering is undefined for the operand kinds, in which case the
// caller must treat the comparison result as Unbound (spec.md §4.9).
func Compare(a, b Value) (cmp int, ok bool) {
	if isNumeric(a.kind) && isNumeric(b.kind) {
		af, _ := a.AsFloat64()
		bf, _ := b.AsFloat64()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == Str && b.kind == Str {
		if a.Lang() != b.Lang() {
			return 0, false
		}
		switch {
		case a.s < b.s:
			return -1, true
		case a.s > b.s:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind == Bool && b.kind == Bool {
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b && b.b:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func isNumeric(k Kind) bool {
	return k == Int64 || k == F64
}
