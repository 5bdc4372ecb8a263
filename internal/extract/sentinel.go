package extract

// The raw result source distinguishes two structural markers. A forbidden
// value extracts to nil but keeps its key, telling the client "we withheld
// it". A not-loaded value drops its key entirely: the backend never fetched
// the field, which is indistinguishable from not asking for it.
type forbidden struct{}

type notLoaded struct{}

// Forbidden marks a value the caller is not allowed to read.
var Forbidden any = forbidden{}

// NotLoaded marks a field the backend did not fetch.
var NotLoaded any = notLoaded{}

// CIString is a case-insensitive string wrapper as produced by the raw
// result source. Extraction flattens it to plain text.
type CIString struct {
	Value string
}

// Atom is a raw symbol value. Extraction renders it as text.
type Atom string
