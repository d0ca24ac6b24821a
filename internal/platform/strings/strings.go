// Package strings holds small string slice helpers shared by middleware
package strings

// IfEmpty returns def when xs is empty, otherwise xs
func IfEmpty(xs, def []string) []string {
	if len(xs) == 0 {
		return def
	}
	return xs
}
