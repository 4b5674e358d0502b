// Package cautela holds the search contract shared by the custody tracker's
// match strategies, sessions and commands.
package cautela

// Matcher filters a collection of records against a query string.
// Implementations never mutate records and return records unchanged
// when the query is blank.
type Matcher[T any] interface {
	// Match returns the records that satisfy query, in strategy order.
	Match(records []T, query string) []T
}

// MatcherFunc is a function type that implements the Matcher interface.
// This allows using a function as a Matcher, similar to http.HandlerFunc.
type MatcherFunc[T any] func(records []T, query string) []T

// Match implements the Matcher interface for MatcherFunc.
func (f MatcherFunc[T]) Match(records []T, query string) []T {
	return f(records, query)
}
