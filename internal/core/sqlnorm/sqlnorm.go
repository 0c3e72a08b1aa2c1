// Package sqlnorm canonicalizes raw SQL text so that structurally identical
// queries collapse to a single form regardless of their literal values.
package sqlnorm

import "regexp"

// Placeholder is the token substituted for literal values.
const Placeholder = "?"

// stringLiteral matches a single-quoted SQL string literal. Doubled quotes
// inside the literal are escapes, so 'O''Brien' is one literal.
var stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)

// token matches either an identifier-like run (which may contain digits, e.g.
// users123 or a positional placeholder like $1) or a numeric literal. Digit
// runs glued to trailing letters are captured whole so they are never treated
// as numbers.
var token = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*|\d+(?:\.\d+)?[A-Za-z_0-9]*`)

// numeric reports a token consisting solely of an integer or decimal literal.
var numeric = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

// Normalize replaces every string literal and every standalone numeric
// literal in query with Placeholder. String literals are replaced first so
// digits inside them never leak into the numeric pass. Identifiers that
// merely contain digits and database positional placeholders ($1, $2) are
// left intact. Empty input is returned unchanged.
func Normalize(query string) string {
	if query == "" {
		return query
	}

	out := stringLiteral.ReplaceAllString(query, Placeholder)

	return token.ReplaceAllStringFunc(out, func(tok string) string {
		if numeric.MatchString(tok) {
			return Placeholder
		}
		return tok
	})
}
