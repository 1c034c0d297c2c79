package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/util"
)

// ExtractFromGrid runs a row-major cell grid (first row = headers)
// through the column mapping engine. Fewer than two rows, or headers
// mapping to no known field, yield an empty list.
func ExtractFromGrid(rows [][]string) []internal.CandidateProduct {
	if len(rows) < 2 {
		return nil
	}

	headers := rows[0]
	mapping := MapColumns(headers)
	if len(mapping) == 0 {
		return nil
	}

	out := make([]internal.CandidateProduct, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		record := BuildRecord(headers, cells, mapping, i+1)
		if record.Name == "" && record.Reference == "" {
			continue
		}
		out = append(out, record)
	}
	return out
}

// ExtractFromGlyphs handles PDF input: table reconstruction first, and
// when no usable table emerges, the vendor pattern extractors over the
// flattened text.
func ExtractFromGlyphs(glyphs []internal.Glyph) []internal.CandidateProduct {
	if len(glyphs) < minGlyphs {
		return nil
	}

	sorted := SortGlyphs(glyphs)
	if products, ok := reconstructTable(sorted); ok && len(products) > 0 {
		return dropUnidentified(products)
	}

	return ExtractFromText(strings.Join(glyphLines(sorted), "\n"))
}

// ExtractFromText routes manually pasted (or flattened PDF) text
// through the vendor pattern registry.
func ExtractFromText(text string) []internal.CandidateProduct {
	return dropUnidentified(extractByVendor(text))
}

// ExtractFromInput decodes a file and dispatches on input kind. This is
// the entry point the CLI and the mail processor share.
func ExtractFromInput(kind internal.InputKind, path string) ([]internal.CandidateProduct, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case internal.InputXLSX:
		grid, err := DecodeXLSXGrid(blob)
		if err != nil {
			return nil, err
		}
		return ExtractFromGrid(grid), nil
	case internal.InputPDF:
		glyphs, err := DecodePDFGlyphs(blob)
		if err != nil {
			return nil, err
		}
		return ExtractFromGlyphs(glyphs), nil
	case internal.InputHTMLTable:
		grid, err := DecodeHTMLGrid(string(blob))
		if err != nil {
			return nil, err
		}
		return ExtractFromGrid(grid), nil
	case internal.InputText:
		return ExtractFromText(string(blob)), nil
	default:
		return nil, fmt.Errorf("unsupported input kind: %s", kind)
	}
}

// dropUnidentified enforces the pipeline invariant that every candidate
// carries a name or a reference before reconciliation.
func dropUnidentified(products []internal.CandidateProduct) []internal.CandidateProduct {
	out := make([]internal.CandidateProduct, 0, len(products))
	for _, p := range products {
		if p.Name == "" && p.Reference == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DecodeXLSXGrid reads the first sheet with content into a cell grid,
// trimming cells and skipping entirely empty rows.
func DecodeXLSXGrid(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		grid := make([][]string, 0, len(rows))
		for _, row := range rows {
			cells := make([]string, len(row))
			empty := true
			for i, c := range row {
				cells[i] = util.CollapseSpaces(c)
				if cells[i] != "" {
					empty = false
				}
			}
			if !empty {
				grid = append(grid, cells)
			}
		}
		if len(grid) > 0 {
			return grid, nil
		}
	}
	return nil, nil
}

// DecodePDFGlyphs flattens a PDF into positioned glyphs, one per text
// fragment, keeping page numbers for the line sort.
func DecodePDFGlyphs(content []byte) ([]internal.Glyph, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	out := []internal.Glyph{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, t := range p.Content().Text {
			s := strings.TrimSpace(t.S)
			if s == "" {
				continue
			}
			out = append(out, internal.Glyph{Text: s, X: t.X, Y: t.Y, Width: t.W, Page: i})
		}
	}
	return out, nil
}

// DecodeHTMLGrid turns the first non-trivial <table> of an HTML
// fragment into a cell grid. Suppliers paste web-shop tables into the
// import dialog, which arrive here as markup.
func DecodeHTMLGrid(html string) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var grid [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.CollapseSpaces(cell.Text()))
			})
			if len(cells) > 0 {
				grid = append(grid, cells)
			}
		})
		return false
	})
	return grid, nil
}

// glyphLines joins pre-sorted glyphs into text lines, one per cluster
// of glyphs within the line tolerance on the same page.
func glyphLines(sorted []internal.Glyph) []string {
	lines := []string{}
	var cur []string
	curPage := -1
	curY := 0.0

	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
			cur = nil
		}
	}

	for _, g := range sorted {
		if g.Page != curPage || absFloat(g.Y-curY) > lineTolerance {
			flush()
			curPage = g.Page
			curY = g.Y
		}
		cur = append(cur, g.Text)
	}
	flush()
	return lines
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
