package textwire

import (
	"reflect"
	"strings"
	"sync"
)

// structFields is the wire view of a struct type: fields in declaration
// order and an index by wire name.
type structFields struct {
	list   []field
	byName map[string]int
}

type field struct {
	name      string
	index     int
	omitEmpty bool
}

var fieldCache sync.Map // map[reflect.Type]*structFields

func cachedFields(t reflect.Type) *structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structFields)
	}
	f, _ := fieldCache.LoadOrStore(t, typeFields(t))
	return f.(*structFields)
}

func typeFields(t reflect.Type) *structFields {
	fs := &structFields{byName: make(map[string]int)}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts := parseTag(sf.Tag.Get("textwire"))
		if name == "-" {
			continue
		}
		if sf.PkgPath != "" {
			// not exported
			continue
		}
		if name == "" {
			name = sf.Name
		}
		fs.byName[name] = len(fs.list)
		fs.list = append(fs.list, field{name: name, index: i, omitEmpty: opts.Contains("omitempty")})
	}
	return fs
}

// lookup finds the field called name, falling back to a case-insensitive
// match.
func (fs *structFields) lookup(name string) (field, bool) {
	if i, ok := fs.byName[name]; ok {
		return fs.list[i], true
	}
	for _, f := range fs.list {
		if strings.EqualFold(f.name, name) {
			return f, true
		}
	}
	return field{}, false
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	if idx := strings.Index(tag, ","); idx != -1 {
		return tag[:idx], tagOptions(tag[idx+1:])
	}
	return tag, tagOptions("")
}

func (o tagOptions) Contains(optionName string) bool {
	if len(o) == 0 {
		return false
	}
	s := string(o)
	for s != "" {
		var next string
		i := strings.Index(s, ",")
		if i >= 0 {
			s, next = s[:i], s[i+1:]
		}
		if s == optionName {
			return true
		}
		s = next
	}
	return false
}
