package metadata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is a simple row-major rendering of an HTML <table>.
type Table struct {
	Caption string     `json:"caption,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows"`
}

// ExtractTables collects every <table> element's caption, header row, and
// body rows, in document order. Tables with no cells are skipped.
func ExtractTables(htmlBytes []byte) []Table {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return nil
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		var table Table
		table.Caption = strings.TrimSpace(t.Find("caption").First().Text())

		t.Find("thead tr").First().Find("th, td").Each(func(_ int, c *goquery.Selection) {
			table.Headers = append(table.Headers, strings.TrimSpace(c.Text()))
		})

		bodyRows := t.Find("tbody tr")
		if bodyRows.Length() == 0 {
			bodyRows = t.Find("tr")
		}
		bodyRows.Each(func(i int, r *goquery.Selection) {
			if i == 0 && len(table.Headers) == 0 {
				var headRow []string
				isHeaderRow := r.Find("th").Length() > 0
				r.Find("th, td").Each(func(_ int, c *goquery.Selection) {
					headRow = append(headRow, strings.TrimSpace(c.Text()))
				})
				if isHeaderRow {
					table.Headers = headRow
					return
				}
			}
			var row []string
			r.Find("td, th").Each(func(_ int, c *goquery.Selection) {
				row = append(row, strings.TrimSpace(c.Text()))
			})
			if len(row) > 0 {
				table.Rows = append(table.Rows, row)
			}
		})

		if len(table.Rows) > 0 || len(table.Headers) > 0 {
			tables = append(tables, table)
		}
	})
	return tables
}
