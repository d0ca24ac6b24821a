// Package prefix implements the search string alphabet and its odometer
// increment. Strings advance a-z then 0-9 on the last position; a full
// carry grows the string by one position, so length never decreases.
package prefix

import "strings"

// Alphabet is the ordered symbol set, letters strictly before digits
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Seed is the first search string crawled on a cold start
const Seed = "aaaa"

// Next returns the immediate successor of s in the odometer ordering.
// Next("") is "a". A position past '9' wraps to 'a' and carries left;
// the carry cascade grows length only when every position carries.
func Next(s string) string {
	if s == "" {
		return "a"
	}
	last := s[len(s)-1]
	idx := strings.IndexByte(Alphabet, last)
	if idx < 0 {
		return s[:len(s)-1] + "a"
	}
	if idx < len(Alphabet)-1 {
		return s[:len(s)-1] + string(Alphabet[idx+1])
	}
	return Next(s[:len(s)-1]) + "a"
}

// Less reports whether a precedes b in crawl order (length-then-lex over Alphabet)
func Less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	for i := 0; i < len(a); i++ {
		ra := strings.IndexByte(Alphabet, a[i])
		rb := strings.IndexByte(Alphabet, b[i])
		if ra != rb {
			return ra < rb
		}
	}
	return false
}

// Valid reports whether s is non-empty and drawn entirely from Alphabet
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
