package domain

import "strings"

// FieldType is the declared type of a schema field.
type FieldType string

// Field types.
const (
	FieldString    FieldType = "STRING"
	FieldInteger   FieldType = "INTEGER"
	FieldFloat     FieldType = "FLOAT"
	FieldBoolean   FieldType = "BOOLEAN"
	FieldBytes     FieldType = "BYTES"
	FieldTimestamp FieldType = "TIMESTAMP"
	FieldTime      FieldType = "TIME"
	FieldDatetime  FieldType = "DATETIME"
	FieldDate      FieldType = "DATE"
	FieldRecord    FieldType = "RECORD"
)

var knownFieldTypes = map[FieldType]bool{
	FieldString: true, FieldInteger: true, FieldFloat: true, FieldBoolean: true,
	FieldBytes: true, FieldTimestamp: true, FieldTime: true, FieldDatetime: true,
	FieldDate: true, FieldRecord: true,
}

// Standard SQL spellings of the legacy type names.
var fieldTypeAliases = map[string]FieldType{
	"INT64":   FieldInteger,
	"FLOAT64": FieldFloat,
	"BOOL":    FieldBoolean,
	"STRUCT":  FieldRecord,
}

// ParseFieldType normalises a wire type name. The second result is false
// for types this library does not coerce; the upper-cased name is still
// returned so it can be carried through.
func ParseFieldType(s string) (FieldType, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if alias, ok := fieldTypeAliases[up]; ok {
		return alias, true
	}
	t := FieldType(up)
	return t, knownFieldTypes[t]
}

// FieldMode is the mode of a schema field.
type FieldMode string

// Field modes.
const (
	ModeNullable FieldMode = "NULLABLE"
	ModeRequired FieldMode = "REQUIRED"
	ModeRepeated FieldMode = "REPEATED"
)

// ParseFieldMode normalises a wire mode; empty means NULLABLE.
func ParseFieldMode(s string) (FieldMode, bool) {
	up := FieldMode(strings.ToUpper(strings.TrimSpace(s)))
	switch up {
	case "":
		return ModeNullable, true
	case ModeNullable, ModeRequired, ModeRepeated:
		return up, true
	}
	return up, false
}

// Field is a single column definition. RECORD fields carry nested fields.
type Field struct {
	Name        string
	Type        FieldType
	Mode        FieldMode
	Description string

	fieldSet
}

// NewField creates a field with the given nested fields.
func NewField(name string, typ FieldType, mode FieldMode, description string, nested ...*Field) *Field {
	if mode == "" {
		mode = ModeNullable
	}
	return &Field{
		Name:        name,
		Type:        typ,
		Mode:        mode,
		Description: description,
		fieldSet:    fieldSet{fields: nested},
	}
}

// Repeated reports whether the field holds a list of values.
func (f *Field) Repeated() bool { return f.Mode == ModeRepeated }

// Required reports whether the field may not be null.
func (f *Field) Required() bool { return f.Mode == ModeRequired }

// Schema is an ordered list of fields. Schemas decoded from a service
// response are frozen; adding a field to a frozen schema fails.
type Schema struct {
	fieldSet
}

// NewSchema creates a mutable schema from fields.
func NewSchema(fields ...*Field) *Schema {
	return &Schema{fieldSet: fieldSet{fields: fields}}
}

// Freeze marks the schema and every nested field read-only.
func (s *Schema) Freeze() *Schema {
	s.freeze()
	return s
}

// FieldOption customises a field added through a schema builder method.
type FieldOption func(*Field)

// WithDescription sets the field description.
func WithDescription(d string) FieldOption {
	return func(f *Field) { f.Description = d }
}

// WithMode sets the field mode.
func WithMode(m FieldMode) FieldOption {
	return func(f *Field) { f.Mode = m }
}

type fieldSet struct {
	fields []*Field
	frozen bool
}

// Fields returns the fields in declaration order.
func (s *fieldSet) Fields() []*Field {
	return s.fields
}

// Frozen reports whether the field list is read-only.
func (s *fieldSet) Frozen() bool { return s.frozen }

// Empty reports whether there are no fields.
func (s *fieldSet) Empty() bool { return len(s.fields) == 0 }

// Headers returns the field names in order.
func (s *fieldSet) Headers() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the field called name, or nil.
func (s *fieldSet) Field(name string) *Field {
	for _, f := range s.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (s *fieldSet) freeze() {
	s.frozen = true
	for _, f := range s.fields {
		f.freeze()
	}
}

// String adds a STRING field.
func (s *fieldSet) String(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldString, opts...)
}

// Integer adds an INTEGER field.
func (s *fieldSet) Integer(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldInteger, opts...)
}

// Float adds a FLOAT field.
func (s *fieldSet) Float(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldFloat, opts...)
}

// Boolean adds a BOOLEAN field.
func (s *fieldSet) Boolean(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldBoolean, opts...)
}

// Bytes adds a BYTES field.
func (s *fieldSet) Bytes(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldBytes, opts...)
}

// Timestamp adds a TIMESTAMP field.
func (s *fieldSet) Timestamp(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldTimestamp, opts...)
}

// Time adds a TIME field.
func (s *fieldSet) Time(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldTime, opts...)
}

// Datetime adds a DATETIME field.
func (s *fieldSet) Datetime(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldDatetime, opts...)
}

// Date adds a DATE field.
func (s *fieldSet) Date(name string, opts ...FieldOption) (*Field, error) {
	return s.AddField(name, FieldDate, opts...)
}

// Record adds a RECORD field whose nested fields are declared by build.
func (s *fieldSet) Record(name string, build func(*Field) error, opts ...FieldOption) (*Field, error) {
	if build == nil {
		return nil, ErrValidation("record %q requires a builder for its nested fields", name)
	}
	f, err := s.AddField(name, FieldRecord, opts...)
	if err != nil {
		return nil, err
	}
	if err := build(f); err != nil {
		return nil, err
	}
	return f, nil
}

// AddField appends a field, replacing any existing field with the same name.
func (s *fieldSet) AddField(name string, typ FieldType, opts ...FieldOption) (*Field, error) {
	if s.frozen {
		return nil, ErrPrecondition("cannot add field %q: schema is frozen", name)
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrValidation("field name is required")
	}
	t, ok := ParseFieldType(string(typ))
	if !ok {
		return nil, ErrValidation("unknown field type %q for field %q", typ, name)
	}

	f := NewField(name, t, ModeNullable, "")
	for _, opt := range opts {
		opt(f)
	}
	mode, ok := ParseFieldMode(string(f.Mode))
	if !ok {
		return nil, ErrValidation("unknown field mode %q for field %q", f.Mode, name)
	}
	f.Mode = mode

	kept := s.fields[:0]
	for _, existing := range s.fields {
		if existing.Name != name {
			kept = append(kept, existing)
		}
	}
	s.fields = append(kept, f)
	return f, nil
}
