package schema

import (
	"sort"
	"strings"
)

// maxRelationDepth bounds recursive flattening of relation descriptors.
// Definition files could otherwise nest (or cycle) without limit.
const maxRelationDepth = 8

// Registry is an immutable set of searchable fields indexed by name and
// by case-insensitive label. All methods are safe for concurrent use;
// Merge returns a new Registry instead of mutating.
type Registry struct {
	byName  map[string]Field
	byLabel map[string]Field
	labels  []string
}

// New builds a Registry from field descriptors keyed by storage name.
// Relation sub-descriptors flatten recursively into dotted names and
// dotted labels ("company.name" / "Company.Name"). Fields marked not
// searchable are skipped entirely. Descriptors with no label fall back
// to their name; descriptors with no type default to char.
func New(fields map[string]Field) *Registry {
	r := &Registry{
		byName:  make(map[string]Field),
		byLabel: make(map[string]Field),
	}
	r.register(fields, "", "", 0)
	r.reindex()
	return r
}

// Merge returns a new Registry containing the receiver's fields plus the
// given descriptors flattened under the name and label prefixes. Empty
// prefixes merge at the top level. Conflicting labels resolve to the
// merged-in field.
func (r *Registry) Merge(fields map[string]Field, namePrefix, labelPrefix string) *Registry {
	merged := &Registry{
		byName:  make(map[string]Field, len(r.byName)+len(fields)),
		byLabel: make(map[string]Field, len(r.byLabel)+len(fields)),
	}
	for name, f := range r.byName {
		merged.byName[name] = f
	}
	for label, f := range r.byLabel {
		merged.byLabel[label] = f
	}
	merged.register(fields, namePrefix, labelPrefix, 0)
	merged.reindex()
	return merged
}

// register flattens descriptors into the lookup maps. Iteration is in
// sorted name order so label conflicts resolve deterministically.
func (r *Registry) register(fields map[string]Field, namePrefix, labelPrefix string, depth int) {
	if depth > maxRelationDepth {
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := fields[name]
		if !f.IsSearchable() {
			continue
		}
		f.Name = joinPath(namePrefix, name)
		if f.Label == "" {
			f.Label = name
		}
		if labelPrefix != "" {
			f.Label = labelPrefix + "." + f.Label
		}
		if f.Type == "" {
			f.Type = TypeChar
		}
		f.Type = f.Type.Normalize()
		f.Selection = append([]SelectionOption(nil), f.Selection...)

		relation := f.Relation
		f.Relation = nil
		r.byName[f.Name] = f
		r.byLabel[strings.ToLower(f.Label)] = f

		if len(relation) > 0 && f.Type.IsRelational() {
			r.register(relation, f.Name, f.Label, depth+1)
		}
	}
}

// reindex rebuilds the sorted label index after registration.
func (r *Registry) reindex() {
	r.labels = r.labels[:0]
	for label := range r.byLabel {
		r.labels = append(r.labels, label)
	}
	sort.Strings(r.labels)
}

// Lookup finds a field by its label, case-insensitively.
func (r *Registry) Lookup(label string) (Field, bool) {
	f, ok := r.byLabel[strings.ToLower(label)]
	return f, ok
}

// Get finds a field by its dotted storage name.
func (r *Registry) Get(name string) (Field, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// Fields returns all registered fields sorted by label.
func (r *Registry) Fields() []Field {
	fields := make([]Field, 0, len(r.labels))
	for _, label := range r.labels {
		fields = append(fields, r.byLabel[label])
	}
	return fields
}

// MatchPrefix returns the fields whose label starts with the given
// prefix, case-insensitively, sorted by label. An empty prefix matches
// every field.
func (r *Registry) MatchPrefix(prefix string) []Field {
	prefix = strings.ToLower(prefix)
	var fields []Field
	for _, label := range r.labels {
		if strings.HasPrefix(label, prefix) {
			fields = append(fields, r.byLabel[label])
		}
	}
	return fields
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.byName)
}

// Definitions returns the registered fields keyed by dotted name, for
// snapshotting. The result is a copy.
func (r *Registry) Definitions() map[string]Field {
	defs := make(map[string]Field, len(r.byName))
	for name, f := range r.byName {
		defs[name] = f
	}
	return defs
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
