package dataset

// Column resolution for inconsistently named exports.
//
// Every logical field carries an explicit, ordered list of accepted aliases
// rather than ad hoc substring searches scattered through the normalizers.
// Resolution first tries the aliases as exact normalized names, then falls
// back to token-containment rules, and distinguishes "no candidate found"
// from "multiple ambiguous candidates found".

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrColumnNotFound reports that no column matched any alias or token
	// rule for a logical field.
	ErrColumnNotFound = errors.New("column not found")

	// ErrColumnAmbiguous reports that a token rule matched more than one
	// distinct column, which would silently bind the wrong field.
	ErrColumnAmbiguous = errors.New("column ambiguous")
)

// tokenRule matches a column whose name contains all the `all` tokens and
// none of the `none` tokens.
type tokenRule struct {
	all  []string
	none []string
}

func (r tokenRule) matches(column string) bool {
	for _, tok := range r.all {
		if !strings.Contains(column, tok) {
			return false
		}
	}
	for _, tok := range r.none {
		if strings.Contains(column, tok) {
			return false
		}
	}
	return true
}

// resolveColumn finds the index of the column for a logical field. Exact
// aliases are tried in order first; each token rule is then tried in order,
// erroring if a rule matches several distinct columns.
func resolveColumn(field string, columns []string, exact []string, rules ...tokenRule) (int, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, seen := index[c]; !seen {
			index[c] = i
		}
	}

	for _, alias := range exact {
		if i, ok := index[alias]; ok {
			return i, nil
		}
	}

	for _, rule := range rules {
		var matched []string
		for _, c := range columns {
			if rule.matches(c) {
				matched = append(matched, c)
			}
		}
		matched = dedupe(matched)
		switch len(matched) {
		case 0:
			continue
		case 1:
			return index[matched[0]], nil
		default:
			return -1, fmt.Errorf(
				"%w: field %q matched by columns %s",
				ErrColumnAmbiguous, field, strings.Join(matched, ", "),
			)
		}
	}
	return -1, fmt.Errorf("%w: no candidate for field %q", ErrColumnNotFound, field)
}

// resolveOptional is resolveColumn for fields that may legitimately be
// absent: not-found collapses to index -1, ambiguity is still an error.
func resolveOptional(field string, columns []string, exact []string, rules ...tokenRule) (int, error) {
	i, err := resolveColumn(field, columns, exact, rules...)
	if errors.Is(err, ErrColumnNotFound) {
		return -1, nil
	}
	return i, err
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
