// Package tagquery parses and evaluates the tag filter expression language.
//
// The grammar covers identifiers (tag names: lowercase alphanumeric starting
// with a letter), boolean connectives and/or/not, the comparison operators
// == != < <= > >= against numeric literals, and parentheses. A bare
// identifier means "this tag is present on the entity".
//
// Queries are parsed into a small AST and evaluated by a tree walk against a
// resolved value map per entity. Substituting values textually into the query
// string would be fragile (tag1 matching inside tag10) and an injection
// hazard; the AST removes both problems.
package tagquery

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenAnd
	tokenOr
	tokenNot
	tokenEq
	tokenNe
	tokenLt
	tokenLe
	tokenGt
	tokenGe
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
}

// lex splits a query string into tokens. Identifiers are matched as whole
// words, so tag1 can never be confused with a prefix of tag10.
func lex(query string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(query) {
		ch := rune(query[i])
		switch {
		case unicode.IsSpace(ch):
			i++

		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen})
			i++

		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen})
			i++

		case ch == '=':
			if i+1 < len(query) && query[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenEq})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q at offset %d", "=", i)
			}

		case ch == '!':
			if i+1 < len(query) && query[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNe})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q at offset %d", "!", i)
			}

		case ch == '<':
			if i+1 < len(query) && query[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenLe})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenLt})
				i++
			}

		case ch == '>':
			if i+1 < len(query) && query[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenGe})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenGt})
				i++
			}

		case unicode.IsDigit(ch):
			start := i
			for i < len(query) && (unicode.IsDigit(rune(query[i])) || query[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: query[start:i]})

		case unicode.IsLower(ch):
			start := i
			for i < len(query) && (unicode.IsLower(rune(query[i])) || unicode.IsDigit(rune(query[i]))) {
				i++
			}
			word := query[start:i]
			switch word {
			case "and":
				tokens = append(tokens, token{kind: tokenAnd})
			case "or":
				tokens = append(tokens, token{kind: tokenOr})
			case "not":
				tokens = append(tokens, token{kind: tokenNot})
			default:
				tokens = append(tokens, token{kind: tokenIdent, text: word})
			}

		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", ch, i)
		}
	}

	tokens = append(tokens, token{kind: tokenEOF})
	return tokens, nil
}

// TagNames returns the distinct tag names mentioned in the query, in order
// of first appearance. Returns nil for queries that do not lex.
func TagNames(query string) []string {
	tokens, err := lex(query)
	if err != nil {
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok.kind == tokenIdent && !seen[tok.text] {
			seen[tok.text] = true
			names = append(names, tok.text)
		}
	}
	return names
}

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of query"
	case tokenIdent:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenAnd, tokenOr, tokenNot:
		return strings.ToLower(map[tokenKind]string{tokenAnd: "AND", tokenOr: "OR", tokenNot: "NOT"}[k])
	case tokenEq:
		return "=="
	case tokenNe:
		return "!="
	case tokenLt:
		return "<"
	case tokenLe:
		return "<="
	case tokenGt:
		return ">"
	case tokenGe:
		return ">="
	case tokenLParen:
		return "("
	case tokenRParen:
		return ")"
	default:
		return "unknown token"
	}
}
