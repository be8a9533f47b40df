package application

import (
	"sort"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

// BuildFields indexes the raw field schema of a table by field id.
func BuildFields(raw []model.RawField) map[string]model.Field {
	fields := make(map[string]model.Field, len(raw))
	for _, f := range raw {
		fields[f.ID] = model.Field{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Type:        f.Type,
		}
	}
	return fields
}

// BuildRecords indexes raw records by id and turns each cell into a Cell
// carrying its field's current name. A cell whose field id is not in fields
// is an integrity error: the record listing and the schema listing disagree.
func BuildRecords(raw []model.RawRecord, fields map[string]model.Field) (map[string]model.Record, error) {
	records := make(map[string]model.Record, len(raw))
	for _, r := range raw {
		cells := make(map[string]model.Cell, len(r.Fields))
		for fieldID, value := range r.Fields {
			field, ok := fields[fieldID]
			if !ok {
				return nil, model.NewIntegrityError("record %s references unknown field %s", r.ID, fieldID)
			}
			cells[fieldID] = model.Cell{FieldID: fieldID, FieldName: field.Name, Value: value}
		}
		records[r.ID] = model.Record{ID: r.ID, CreatedTime: r.CreatedTime, Cells: cells}
	}
	return records, nil
}

// BuildTable assembles a table from its already built fields and records.
// The primary field must be one of fields.
func BuildTable(raw model.RawTable, fields map[string]model.Field, records map[string]model.Record) (model.Table, error) {
	if _, ok := fields[raw.PrimaryFieldID]; !ok {
		return model.Table{}, model.NewIntegrityError("table %s primary field %s is not among its fields", raw.ID, raw.PrimaryFieldID)
	}

	return model.Table{
		ID:             raw.ID,
		Name:           raw.Name,
		Description:    raw.Description,
		Fields:         fields,
		PrimaryFieldID: raw.PrimaryFieldID,
		Records:        records,
	}, nil
}

// BuildBase wraps the built tables into a base.
func BuildBase(raw model.RawBase, tables map[string]model.Table) model.Base {
	if tables == nil {
		tables = map[string]model.Table{}
	}
	return model.Base{ID: raw.ID, Name: raw.Name, Tables: tables}
}

// CellTypeMismatch is a cell whose value kind does not fit its field type.
type CellTypeMismatch struct {
	TableID   string
	RecordID  string
	FieldID   string
	FieldType model.FieldType
	Got       model.ValueKind
}

// CheckCellTypes compares every cell of the table against its field's
// declared type. Cells of unknown or computed field types are not checked.
// Results are ordered by record id, then field id.
func CheckCellTypes(table model.Table) []CellTypeMismatch {
	var mismatches []CellTypeMismatch
	for recordID, record := range table.Records {
		for fieldID, cell := range record.Cells {
			field, ok := table.Fields[fieldID]
			if !ok || field.Type.Accepts(cell.Value) {
				continue
			}
			mismatches = append(mismatches, CellTypeMismatch{
				TableID:   table.ID,
				RecordID:  recordID,
				FieldID:   fieldID,
				FieldType: field.Type,
				Got:       cell.Value.Kind(),
			})
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		if mismatches[i].RecordID != mismatches[j].RecordID {
			return mismatches[i].RecordID < mismatches[j].RecordID
		}
		return mismatches[i].FieldID < mismatches[j].FieldID
	})
	return mismatches
}
