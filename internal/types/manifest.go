package types

// Var is a single entry of a manifest's top-level vars mapping. Value is
// either a bool or a string.
type Var struct {
	Name  string
	Value any
}

// Package is one CIPD package reference inside a dependency entry.
// Package may be a template containing platform placeholders.
type Package struct {
	Package string `yaml:"package"`
	Version string `yaml:"version"`
}

// Entry is one value of the deps mapping, keyed by its checkout path.
type Entry struct {
	Path      string
	DepType   DepType
	Packages  []Package
	URL       string
	Condition string
}

type Manifest struct {
	Source           string
	UseRelativePaths bool
	Vars             []Var
	Deps             []Entry
}

// Entry returns the entry registered for path.
func (m Manifest) Entry(path string) (Entry, bool) {
	for _, entry := range m.Deps {
		if entry.Path == path {
			return entry, true
		}
	}
	return Entry{}, false
}

// VarNames lists the names declared in the vars mapping, in file order.
func (m Manifest) VarNames() []string {
	names := make([]string, 0, len(m.Vars))
	for _, v := range m.Vars {
		names = append(names, v.Name)
	}
	return names
}
