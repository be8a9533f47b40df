package airtable

import (
	"context"
	"fmt"
	"net/url"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

type basesPage struct {
	Bases  []baseJSON `json:"bases"`
	Offset string     `json:"offset,omitempty"`
}

type baseJSON struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PermissionLevel string `json:"permissionLevel"`
}

func (p *basesPage) nextOffset() string { return p.Offset }
func (p *basesPage) clearOffset()       { p.Offset = "" }

type tablesPage struct {
	Tables []tableJSON `json:"tables"`
	Offset string      `json:"offset,omitempty"`
}

type tableJSON struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	PrimaryFieldID string      `json:"primaryFieldId"`
	Fields         []fieldJSON `json:"fields"`
}

type fieldJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (p *tablesPage) nextOffset() string { return p.Offset }
func (p *tablesPage) clearOffset()       { p.Offset = "" }

type recordsPage struct {
	Records []recordJSON `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

type recordJSON struct {
	ID          string                     `json:"id"`
	CreatedTime string                     `json:"createdTime"`
	Fields      map[string]model.CellValue `json:"fields"`
}

func (p *recordsPage) nextOffset() string { return p.Offset }
func (p *recordsPage) clearOffset()       { p.Offset = "" }

// ListBases returns every base the token can access.
func (c *Client) ListBases(ctx context.Context, authToken string) ([]model.RawBase, error) {
	result, err := fetchAll(ctx, c, "list bases", authToken, "/v0/meta/bases", nil,
		func(acc, next *basesPage) { acc.Bases = append(acc.Bases, next.Bases...) })
	if err != nil {
		return nil, err
	}

	bases := make([]model.RawBase, 0, len(result.Bases))
	for _, b := range result.Bases {
		bases = append(bases, model.RawBase{ID: b.ID, Name: b.Name, PermissionLevel: b.PermissionLevel})
	}
	return bases, nil
}

// ListTables returns the schema of every table in the base.
func (c *Client) ListTables(ctx context.Context, authToken, baseID string) ([]model.RawTable, error) {
	op := fmt.Sprintf("list tables of %s", baseID)
	path := "/v0/meta/bases/" + url.PathEscape(baseID) + "/tables"

	result, err := fetchAll(ctx, c, op, authToken, path, nil,
		func(acc, next *tablesPage) { acc.Tables = append(acc.Tables, next.Tables...) })
	if err != nil {
		return nil, err
	}

	tables := make([]model.RawTable, 0, len(result.Tables))
	for _, t := range result.Tables {
		tables = append(tables, mapTable(t))
	}
	return tables, nil
}

// ListRecords returns every record of a table, requesting cells keyed by
// field id rather than field name.
func (c *Client) ListRecords(ctx context.Context, authToken, baseID, tableID string) ([]model.RawRecord, error) {
	op := fmt.Sprintf("list records of %s/%s", baseID, tableID)
	path := "/v0/" + url.PathEscape(baseID) + "/" + url.PathEscape(tableID)
	params := url.Values{"returnFieldsByFieldId": {"true"}}

	result, err := fetchAll(ctx, c, op, authToken, path, params,
		func(acc, next *recordsPage) { acc.Records = append(acc.Records, next.Records...) })
	if err != nil {
		return nil, err
	}

	records := make([]model.RawRecord, 0, len(result.Records))
	for _, r := range result.Records {
		fields := r.Fields
		if fields == nil {
			fields = map[string]model.CellValue{}
		}
		records = append(records, model.RawRecord{ID: r.ID, CreatedTime: r.CreatedTime, Fields: fields})
	}
	return records, nil
}

func mapTable(t tableJSON) model.RawTable {
	fields := make([]model.RawField, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, model.RawField{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Type:        model.FieldType(f.Type),
		})
	}
	return model.RawTable{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		PrimaryFieldID: t.PrimaryFieldID,
		Fields:         fields,
	}
}
