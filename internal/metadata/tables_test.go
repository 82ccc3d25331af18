package metadata

import "testing"

func TestExtractTables_WithCaptionAndTheadTbody(t *testing.T) {
	html := `<table>
<caption>Quarterly Results</caption>
<thead><tr><th>Quarter</th><th>Revenue</th></tr></thead>
<tbody>
<tr><td>Q1</td><td>100</td></tr>
<tr><td>Q2</td><td>150</td></tr>
</tbody>
</table>`
	tables := ExtractTables([]byte(html))
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	tbl := tables[0]
	if tbl.Caption != "Quarterly Results" {
		t.Fatalf("expected caption, got %q", tbl.Caption)
	}
	if len(tbl.Headers) != 2 || tbl.Headers[0] != "Quarter" {
		t.Fatalf("expected headers [Quarter Revenue], got %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 || tbl.Rows[0][0] != "Q1" {
		t.Fatalf("expected 2 rows starting with Q1, got %v", tbl.Rows)
	}
}

func TestExtractTables_PlainRowsWithHeaderRowNoThead(t *testing.T) {
	html := `<table><tbody>
<tr><th>Name</th><th>Age</th></tr>
<tr><td>Ann</td><td>30</td></tr>
</tbody></table>`
	tables := ExtractTables([]byte(html))
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	tbl := tables[0]
	if len(tbl.Headers) != 2 || tbl.Headers[0] != "Name" {
		t.Fatalf("expected inferred header row, got %v", tbl.Headers)
	}
	if len(tbl.Rows) != 1 || tbl.Rows[0][0] != "Ann" {
		t.Fatalf("expected 1 data row for Ann, got %v", tbl.Rows)
	}
}

func TestExtractTables_EmptyTableSkipped(t *testing.T) {
	html := `<table></table>`
	tables := ExtractTables([]byte(html))
	if len(tables) != 0 {
		t.Fatalf("expected empty table to be skipped, got %v", tables)
	}
}

func TestExtractTables_MultipleTablesInDocumentOrder(t *testing.T) {
	html := `<table><tbody><tr><td>First</td></tr></tbody></table>
<table><tbody><tr><td>Second</td></tr></tbody></table>`
	tables := ExtractTables([]byte(html))
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0].Rows[0][0] != "First" || tables[1].Rows[0][0] != "Second" {
		t.Fatalf("expected document order preserved, got %v", tables)
	}
}
