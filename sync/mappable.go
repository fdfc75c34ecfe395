package sync

// Mappable provides a common interface for types that can be mapped.
// This enables shared field mapping logic.
type Mappable interface {
	GetFields() map[string]interface{}
	SetField(key string, value interface{})
	DeleteField(key string)
}

// MapFields maps fields from a source to a destination using the provided mappings.
// Fields whose path does not resolve are set to nil.
func MapFields(mappings FieldMappings, source Source, destination Mappable) {
	if mappings.Strings != nil {
		for field, path := range mappings.Strings {
			// handle static strings as well as dynamic paths
			// escaping the value in backticks allows us to distinguish between the two
			if len(path) >= 2 && path[0] == '`' && path[len(path)-1] == '`' {
				destination.SetField(field, path[1:len(path)-1])
				continue
			}
			if result, exists := source.StringForPath(path); exists && result != "" {
				destination.SetField(field, result)
			} else {
				destination.SetField(field, nil)
			}
		}
	}
	if mappings.Booleans != nil {
		for field, path := range mappings.Booleans {
			switch path {
			case "`true`":
				destination.SetField(field, true)
				continue
			case "`false`":
				destination.SetField(field, false)
				continue
			}
			if result, exists := source.BoolForPath(path); exists {
				destination.SetField(field, result)
			} else {
				destination.SetField(field, nil)
			}
		}
	}
}

// Address is a postal address in EveryAction field names.
type Address struct {
	Fields map[string]interface{}
}

func NewAddress() Address {
	return Address{Fields: make(map[string]interface{})}
}

func (a Address) GetFields() map[string]interface{} { return a.Fields }

func (a Address) SetField(key string, value interface{}) { a.Fields[key] = value }

func (a Address) DeleteField(key string) { delete(a.Fields, key) }

// Compact removes unset fields.
func (a Address) Compact() {
	for k, v := range a.Fields {
		if v == nil {
			delete(a.Fields, k)
		}
	}
}

// IsEmpty reports whether the address has no string field set.
// Booleans such as isPreferred alone do not make an address.
func (a Address) IsEmpty() bool {
	for _, v := range a.Fields {
		if s, ok := v.(string); ok && s != "" {
			return false
		}
	}
	return true
}

func (a Address) String(key string) string {
	s, _ := a.Fields[key].(string)
	return s
}
