package tagquery

import (
	"sort"
	"testing"
)

// evalQuery parses and evaluates a query against one entity's values.
func evalQuery(t *testing.T, query string, values map[string]Value) bool {
	t.Helper()

	root, err := Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q): %v", query, err)
	}
	v, err := root.eval(values)
	if err != nil {
		t.Fatalf("eval(%q): %v", query, err)
	}
	return v.truthy()
}

func TestEval_Presence(t *testing.T) {
	values := map[string]Value{"intro": True}

	if !evalQuery(t, "intro", values) {
		t.Error("bare identifier must be true for a linked tag")
	}
	if evalQuery(t, "outro", values) {
		t.Error("bare identifier must be false for an unlinked tag")
	}
}

func TestEval_Connectives(t *testing.T) {
	values := map[string]Value{"a": True, "b": False, "n": Num(5)}

	cases := []struct {
		query string
		want  bool
	}{
		{"a and n", true},
		{"a and b", false},
		{"a or b", true},
		{"b or b", false},
		{"not b", true},
		{"not a", false},
		{"not (a and b)", true},
		{"a and not b", true},
		{"(a or b) and n == 5", true},
	}
	for _, tc := range cases {
		if got := evalQuery(t, tc.query, values); got != tc.want {
			t.Errorf("%q = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestEval_Comparisons(t *testing.T) {
	values := map[string]Value{"score": Num(42), "flag": True}

	cases := []struct {
		query string
		want  bool
	}{
		{"score == 42", true},
		{"score != 42", false},
		{"score < 100", true},
		{"score <= 42", true},
		{"score > 42", false},
		{"score >= 42", true},
		// Comparisons hold only between numbers: absent tags and bare
		// presence flags never satisfy one.
		{"missing < 1", false},
		{"missing == 0", false},
		{"flag == 1", false},
	}
	for _, tc := range cases {
		if got := evalQuery(t, tc.query, values); got != tc.want {
			t.Errorf("%q = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, query := range []string{
		"and",
		"tag1 and",
		"(tag1",
		"tag1 tag2",
		"tag1 =",
		"tag1 ==",
		"Tag1",
		"tag1 && tag2",
	} {
		if _, err := Parse(query); err == nil {
			t.Errorf("Parse(%q): expected error", query)
		}
	}
}

func TestFilter_WordBoundary(t *testing.T) {
	// tag1=100 and tag10=5 on the same entity: "tag1 > 50" must read
	// tag1's value, never match inside tag10.
	values := map[int64]map[string]Value{
		1: {"tag1": Num(100), "tag10": Num(5)},
	}

	got := Filter("tag1 > 50", []int64{1}, values)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Filter = %v, want [1]", got)
	}

	got = Filter("tag10 > 50", []int64{1}, values)
	if len(got) != 0 {
		t.Errorf("Filter = %v, want empty", got)
	}
}

func TestFilter_UnlinkedCandidate(t *testing.T) {
	values := map[string]map[string]Value{
		"E1": {"tag1": True},
	}
	candidates := []string{"E1", "E2"}

	// E2 has no links at all: absent tags are false, so a negated
	// query can still match it.
	got := Filter("not tag1", candidates, values)
	if len(got) != 1 || got[0] != "E2" {
		t.Errorf("Filter = %v, want [E2]", got)
	}
}

func TestFilter_OrComparisonScenario(t *testing.T) {
	// E1 has tag1 (presence), E2 has tag2=150, E3 has neither.
	values := map[string]map[string]Value{
		"E1": {"tag1": True},
		"E2": {"tag2": Num(150)},
	}
	candidates := []string{"E1", "E2", "E3"}

	// E3 stays out: its absent tag2 is false, and false satisfies no
	// comparison.
	got := Filter("tag1 or tag2 < 300", candidates, values)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "E1" || got[1] != "E2" {
		t.Errorf("Filter = %v, want [E1 E2]", got)
	}
}

func TestFilter_MalformedQueryMatchesNothing(t *testing.T) {
	values := map[string]map[string]Value{
		"E1": {"tag1": True},
	}

	if got := Filter("tag1 and (", []string{"E1"}, values); len(got) != 0 {
		t.Errorf("malformed query must match nothing, got %v", got)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	values := map[string]map[string]Value{
		"E1": {"rank": Num(3)},
		"E2": {"rank": Num(9)},
	}
	candidates := []string{"E1", "E2"}

	first := Filter("rank < 5", candidates, values)
	second := Filter("rank < 5", candidates, values)

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Errorf("repeated evaluation differs: %v vs %v", first, second)
	}
}

func TestTagNames(t *testing.T) {
	names := TagNames("tag1 and not (tag10 or tag1) and rank > 5")
	want := []string{"tag1", "tag10", "rank"}
	if len(names) != len(want) {
		t.Fatalf("TagNames = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("TagNames[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if TagNames("bad && query") != nil {
		t.Error("TagNames must be nil for queries that do not lex")
	}
}
