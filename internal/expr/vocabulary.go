package expr

import "strings"

// Vocabulary is the ordered, frozen set of variable and parameter names an
// expression may reference. The position of a name is its evaluation slot.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary builds a vocabulary; duplicates keep their first position.
func NewVocabulary(names ...string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, ok := v.index[name]; ok {
			continue
		}
		v.index[name] = len(v.names)
		v.names = append(v.names, name)
	}
	return v
}

func (v *Vocabulary) Len() int {
	return len(v.names)
}

func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Index returns the evaluation slot of name.
func (v *Vocabulary) Index(name string) (int, bool) {
	i, ok := v.index[name]
	return i, ok
}

// Names returns a copy of the names in slot order.
func (v *Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

func (v *Vocabulary) String() string {
	return "{" + strings.Join(v.names, ", ") + "}"
}
