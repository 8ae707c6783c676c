package source

// StringID is an interned identifier. 0 is reserved for "no string".
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates identifier spellings so that later passes compare
// names by integer. One interner lives for one compile invocation.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the ID for s, allocating one on first sight.
func (in *Interner) Intern(s string) StringID {
	if id, ok := in.index[s]; ok {
		return id
	}
	// собственная копия, чтобы не держать исходный буфер файла
	cpy := string([]byte(s))
	id := StringID(len(in.byID)) //nolint:gosec // bounded by interned string count
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

func (in *Interner) InternBytes(b []byte) StringID {
	return in.Intern(string(b))
}

// Lookup returns the spelling for id.
func (in *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustLookup panics on an invalid ID. Use only for IDs produced by this
// interner.
func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic("ice: invalid string ID")
	}
	return s
}

func (in *Interner) Len() int {
	return len(in.byID)
}
