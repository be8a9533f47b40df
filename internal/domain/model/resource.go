package model

// Base is the mirrored tree of a single Airtable base. It owns its tables.
type Base struct {
	ID     string
	Name   string
	Tables map[string]Table
}

// Table owns its fields and records. PrimaryFieldID always names an entry of
// Fields; use PrimaryField to resolve it.
type Table struct {
	ID             string
	Name           string
	Description    string
	Fields         map[string]Field
	PrimaryFieldID string
	Records        map[string]Record
}

// PrimaryField resolves PrimaryFieldID against the table's own field mapping.
func (t Table) PrimaryField() (Field, bool) {
	f, ok := t.Fields[t.PrimaryFieldID]
	return f, ok
}

// Field describes a single column of a table.
type Field struct {
	ID          string
	Name        string
	Description string
	Type        FieldType
}

// Record is a single row of a table, keyed by cell field id.
type Record struct {
	ID          string
	CreatedTime string // ISO 8601, as returned upstream.
	Cells       map[string]Cell
}

// Cell is the value of one field within one record. FieldName is copied from
// the owning field when the tree is built.
type Cell struct {
	FieldID   string
	FieldName string
	Value     CellValue
}

// RecordCount returns the total number of records across all tables.
func (b Base) RecordCount() int {
	n := 0
	for _, t := range b.Tables {
		n += len(t.Records)
	}
	return n
}
