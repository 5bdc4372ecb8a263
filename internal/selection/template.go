package selection

// NoIndex marks entries of non-positional containers.
const NoIndex = -1

// Entry is one validated template field: internal identifier, resolved
// children, and for tuple containers the positional index of the field.
type Entry struct {
	Name     string   `json:"name"`
	Index    int      `json:"index"`
	Children Template `json:"children,omitempty"`
}

// Template is the validated, internal-identifier-only shadow of a Request.
// It is produced once per request and reapplied to every record of a result
// set without further schema lookups.
type Template []Entry

// Lookup returns the entry with the given internal name.
func (t Template) Lookup(name string) (Entry, bool) {
	for _, e := range t {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the internal identifiers of all entries, in request order.
func (t Template) Names() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.Name
	}
	return out
}
