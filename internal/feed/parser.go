package feed

import (
	"regexp"

	"github.com/tidwall/gjson"

	"marksheet/pkg/contracts/domain"
)

// wrapperPattern matches the gviz response wrapper a published spreadsheet
// serves: a setResponse(...) call whose sole argument is a JSON object.
// Sheets that are not published return an HTML error page instead, which
// this pattern rejects.
var wrapperPattern = regexp.MustCompile(`(?s)\.setResponse\((.*)\)\s*;?\s*$`)

// Parse extracts the JSON object embedded in the feed wrapper and decodes it
// into a RawTable. Pure transformation: no I/O, no partial output on error.
func Parse(payload []byte) (*domain.RawTable, error) {
	match := wrapperPattern.FindSubmatch(payload)
	if match == nil {
		return nil, &FormatError{Reason: "response wrapper not found"}
	}

	body := string(match[1])
	if !gjson.Valid(body) {
		return nil, &FormatError{Reason: "embedded JSON is not decodable"}
	}

	doc := gjson.Parse(body)
	table := doc.Get("table")
	if !table.Exists() {
		return nil, &FormatError{Reason: "embedded JSON has no table"}
	}

	raw := &domain.RawTable{}

	// Labels stay positional; a column without a label contributes an empty
	// string so row cells keep their index alignment.
	table.Get("cols").ForEach(func(_, col gjson.Result) bool {
		raw.Labels = append(raw.Labels, col.Get("label").String())
		return true
	})

	table.Get("rows").ForEach(func(_, row gjson.Result) bool {
		var cells []domain.Cell
		row.Get("c").ForEach(func(_, cell gjson.Result) bool {
			cells = append(cells, parseCell(cell))
			return true
		})
		raw.Rows = append(raw.Rows, cells)
		return true
	})

	return raw, nil
}

// parseCell resolves one gviz cell to its value field. A null cell, or a
// cell whose value field is null or absent, yields an invalid Cell rather
// than a zero.
func parseCell(cell gjson.Result) domain.Cell {
	if cell.Type == gjson.Null {
		return domain.Cell{}
	}
	v := cell.Get("v")
	if !v.Exists() || v.Type == gjson.Null {
		return domain.Cell{}
	}
	return domain.Cell{Value: v.Value(), Valid: true}
}
