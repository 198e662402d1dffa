package tagquery

import "fmt"

// Value is a resolved tag value for one entity: either a boolean (presence
// flag, or absent) or a number (the link's stored value).
type Value struct {
	Number   float64
	IsNumber bool
	Bool     bool
}

// True is the presence value for a tag linked without a numeric value.
var True = Value{Bool: true}

// False is the value of a tag the entity is not linked to.
var False = Value{}

// Num wraps a numeric tag value.
func Num(v float64) Value {
	return Value{Number: v, IsNumber: true}
}

// truthy reports the boolean meaning of a value: numbers follow the usual
// nonzero convention.
func (v Value) truthy() bool {
	if v.IsNumber {
		return v.Number != 0
	}
	return v.Bool
}


func (n *identNode) eval(values map[string]Value) (Value, error) {
	// Absent means false; resolution never fails.
	return values[n.name], nil
}

func (n *numberNode) eval(map[string]Value) (Value, error) {
	return Num(n.value), nil
}

func (n *notNode) eval(values map[string]Value) (Value, error) {
	v, err := n.operand.eval(values)
	if err != nil {
		return False, err
	}
	if v.truthy() {
		return False, nil
	}
	return True, nil
}

func (n *boolNode) eval(values map[string]Value) (Value, error) {
	left, err := n.left.eval(values)
	if err != nil {
		return False, err
	}

	// Short-circuit.
	if n.op == tokenAnd && !left.truthy() {
		return False, nil
	}
	if n.op == tokenOr && left.truthy() {
		return True, nil
	}

	right, err := n.right.eval(values)
	if err != nil {
		return False, err
	}
	if right.truthy() {
		return True, nil
	}
	return False, nil
}

func (n *cmpNode) eval(values map[string]Value) (Value, error) {
	left, err := n.left.eval(values)
	if err != nil {
		return False, err
	}
	right, err := n.right.eval(values)
	if err != nil {
		return False, err
	}

	// Comparisons are defined over numbers only. A boolean operand, which
	// includes any absent tag, never satisfies a numeric comparison.
	if !left.IsNumber || !right.IsNumber {
		return False, nil
	}
	l, r := left.Number, right.Number

	var result bool
	switch n.op {
	case tokenEq:
		result = l == r
	case tokenNe:
		result = l != r
	case tokenLt:
		result = l < r
	case tokenLe:
		result = l <= r
	case tokenGt:
		result = l > r
	case tokenGe:
		result = l >= r
	default:
		return False, fmt.Errorf("unknown comparison operator %s", n.op)
	}

	if result {
		return True, nil
	}
	return False, nil
}

// Filter evaluates the query against each candidate's tag values and returns
// the IDs that match. Candidates absent from tagValues are evaluated against
// an empty value set: absent tags resolve as false, so a negated query can
// still match an unlinked entity while comparisons against its tags cannot.
//
// A query that fails to parse, or whose evaluation errors for any candidate,
// degrades to an empty result set rather than a propagated error: a bad
// search string shows no results. Result order is not guaranteed; callers
// re-sort.
func Filter[ID comparable](query string, candidates []ID, tagValues map[ID]map[string]Value) []ID {
	root, err := Parse(query)
	if err != nil {
		return nil
	}

	matched := make([]ID, 0, len(candidates))
	for _, id := range candidates {
		v, err := root.eval(tagValues[id])
		if err != nil {
			return nil
		}
		if v.truthy() {
			matched = append(matched, id)
		}
	}
	return matched
}
