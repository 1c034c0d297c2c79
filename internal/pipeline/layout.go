package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/util"
)

// Tolerances are in PDF layout units. They were tuned on real supplier
// catalogs and are deliberately fixed: the reconstructor either finds a
// plausible table with them or aborts so the caller can fall back to
// the vendor extractors.
const (
	columnBucketSize     = 15.0
	minAnchorOccurrences = 3
	rowTolerance         = 12.0
	lineTolerance        = 8.0
	headerScanRows       = 15
	headerCellTolerance  = 30.0
	cellTolerance        = 40.0
	minGlyphs            = 10
)

// Stems are chosen so no keyword is a substring of another: a header
// cell contributes at most one hit per stem and the >= 2 threshold
// stays meaningful.
var tableHeaderKeywords = []string{
	"réf", "ref", "code",
	"désign", "design", "libellé", "produit", "article",
	"prix", "tarif", "ppc", "ttc",
	"poids", "dimension",
}

// pdfColumnSpecs is the field pattern table for catalog PDF headers.
// PDF price lists abbreviate more aggressively than spreadsheets, so it
// is a distinct table from the spreadsheet one.
var pdfColumnSpecs = []columnSpec{
	{internal.FieldReference, []string{"référence", "reference", "réf", "ref", "code", "article"}},
	{internal.FieldPurchasePrice, []string{"net", "ht", "achat", "tarif"}},
	{internal.FieldSellPriceIncTax, []string{"ppc", "ttc", "public", "vente"}},
	{internal.FieldProductName, []string{"désignation", "designation", "libellé", "produit", "descriptif", "description"}},
	{internal.FieldWeightKg, []string{"poids", "kg"}},
	{internal.FieldDimensionsText, []string{"dimension", "taille", "lxlxh"}},
}

var dimsPattern = regexp.MustCompile(`(\d{2,4})\s*[x×]\s*(\d{2,4})\s*[x×]\s*(\d{2,4})`)

type glyphRow struct {
	page   int
	y      float64
	glyphs []internal.Glyph
}

// SortGlyphs orders glyphs by (page, line, x), where two glyphs within
// lineTolerance vertical units belong to the same line.
func SortGlyphs(glyphs []internal.Glyph) []internal.Glyph {
	out := make([]internal.Glyph, len(glyphs))
	copy(out, glyphs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		if math.Abs(out[i].Y-out[j].Y) > lineTolerance {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// reconstructTable recovers an implicit table from positioned glyphs.
// The bool result reports whether a usable table was found; false means
// the caller should fall back to free-text extraction.
func reconstructTable(glyphs []internal.Glyph) ([]internal.CandidateProduct, bool) {
	if len(glyphs) < minGlyphs {
		return nil, false
	}

	anchors := detectColumnAnchors(glyphs)
	if len(anchors) < 2 {
		return nil, false
	}

	rows := groupRows(glyphs)

	headerIdx, headerCells := findHeaderRow(rows, anchors)
	if headerIdx < 0 {
		return nil, false
	}

	fields, ok := mapPDFColumns(headerCells)
	if !ok {
		return nil, false
	}

	products := make([]internal.CandidateProduct, 0, len(rows))
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := rowCells(rows[i], anchors, cellTolerance)
		if countHeaderKeywords(strings.Join(cells, " ")) >= 2 {
			continue // repeated header or footer
		}
		record, ok := materializeRow(cells, fields, i)
		if !ok {
			continue
		}
		products = append(products, record)
	}

	return products, true
}

// detectColumnAnchors rounds every glyph x to the nearest bucket and
// keeps buckets recurring often enough to look like column starts.
func detectColumnAnchors(glyphs []internal.Glyph) []float64 {
	counts := map[float64]int{}
	for _, g := range glyphs {
		bucket := math.Round(g.X/columnBucketSize) * columnBucketSize
		counts[bucket]++
	}

	anchors := make([]float64, 0, len(counts))
	for bucket, n := range counts {
		if n >= minAnchorOccurrences {
			anchors = append(anchors, bucket)
		}
	}
	sort.Float64s(anchors)
	return anchors
}

// groupRows clusters glyphs into rows per page. Pages share a
// coordinate system, so the y tolerance must never merge rows across
// a page break.
func groupRows(glyphs []internal.Glyph) []glyphRow {
	var rows []glyphRow
	for _, g := range glyphs {
		placed := false
		for i := range rows {
			if rows[i].page == g.Page && math.Abs(rows[i].y-g.Y) <= rowTolerance {
				rows[i].glyphs = append(rows[i].glyphs, g)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, glyphRow{page: g.Page, y: g.Y, glyphs: []internal.Glyph{g}})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].page != rows[j].page {
			return rows[i].page < rows[j].page
		}
		return rows[i].y < rows[j].y
	})
	return rows
}

// findHeaderRow scans the top rows for the first one whose joined text
// hits at least two header keywords, and returns its per-column cells.
func findHeaderRow(rows []glyphRow, anchors []float64) (int, []string) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}

	for i := 0; i < limit; i++ {
		joined := joinGlyphTexts(rows[i].glyphs)
		if countHeaderKeywords(joined) >= 2 {
			return i, rowCells(rows[i], anchors, headerCellTolerance)
		}
	}
	return -1, nil
}

func joinGlyphTexts(glyphs []internal.Glyph) string {
	parts := make([]string, 0, len(glyphs))
	for _, g := range glyphs {
		parts = append(parts, g.Text)
	}
	return strings.Join(parts, " ")
}

func countHeaderKeywords(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range tableHeaderKeywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

// rowCells assigns each glyph of a row to the nearest column anchor
// within the tolerance and joins texts per column.
func rowCells(row glyphRow, anchors []float64, tolerance float64) []string {
	cells := make([]string, len(anchors))
	for _, g := range row.glyphs {
		col := nearestAnchor(anchors, g.X, tolerance)
		if col < 0 {
			continue
		}
		if cells[col] != "" {
			cells[col] += " "
		}
		cells[col] += g.Text
	}
	for i := range cells {
		cells[i] = util.CollapseSpaces(cells[i])
	}
	return cells
}

func nearestAnchor(anchors []float64, x, tolerance float64) int {
	best := -1
	bestDist := tolerance
	for i, a := range anchors {
		if d := math.Abs(a - x); d <= bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// mapPDFColumns resolves header cells to fields. A second column
// matching the purchase-price patterns is reassigned to the sell price
// when the purchase price is already taken (supplier lists often label
// both price columns with "tarif HT"/"PPC" variants); a third price-like
// column is dropped. The table is usable only with a reference or name
// column plus at least one price column.
func mapPDFColumns(headerCells []string) ([]internal.FieldName, bool) {
	fields := make([]internal.FieldName, len(headerCells))
	assigned := map[internal.FieldName]bool{}

	for i, cell := range headerCells {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key == "" {
			continue
		}
		field, ok := matchColumnSpec(pdfColumnSpecs, key)
		if !ok {
			continue
		}
		if assigned[field] {
			if field == internal.FieldPurchasePrice && !assigned[internal.FieldSellPriceIncTax] {
				field = internal.FieldSellPriceIncTax
			} else {
				continue
			}
		}
		fields[i] = field
		assigned[field] = true
	}

	hasIdentity := assigned[internal.FieldReference] || assigned[internal.FieldProductName]
	hasPrice := assigned[internal.FieldPurchasePrice] || assigned[internal.FieldSellPriceIncTax]
	return fields, hasIdentity && hasPrice
}

// materializeRow converts one table row into a candidate product. Rows
// with neither reference nor name text are rejected.
func materializeRow(cells []string, fields []internal.FieldName, rowIndex int) (internal.CandidateProduct, bool) {
	record := internal.CandidateProduct{Selected: true, SourceRowIndex: rowIndex}

	for i, cell := range cells {
		if i >= len(fields) || cell == "" {
			continue
		}
		switch fields[i] {
		case internal.FieldReference:
			record.Reference = cell
		case internal.FieldProductName:
			record.Name = cell
		case internal.FieldPurchasePrice:
			if v := util.ParsePrice(cell); v > 0 {
				record.PurchasePrice = util.FloatPtr(v)
			}
		case internal.FieldSellPriceIncTax:
			if v := util.ParsePrice(cell); v > 0 {
				record.SellPriceIncTax = util.FloatPtr(v)
			}
		case internal.FieldWeightKg:
			if v := util.ParsePrice(cell); v > 0 && v < 100 {
				record.WeightKg = util.FloatPtr(v)
			}
		case internal.FieldDimensionsText:
			applyDimensions(&record, cell)
		}
	}

	if record.Reference == "" && record.Name == "" {
		return internal.CandidateProduct{}, false
	}
	if record.Name == "" {
		record.Name = record.Reference
	}
	return record, true
}

// applyDimensions parses a "L x W x H" cell, fills the millimeter
// fields and rewrites the display string in canonical form.
func applyDimensions(record *internal.CandidateProduct, cell string) {
	m := dimsPattern.FindStringSubmatch(cell)
	if m == nil {
		record.DimensionsText = cell
		return
	}
	l := util.ParsePrice(m[1])
	w := util.ParsePrice(m[2])
	h := util.ParsePrice(m[3])
	record.LengthMm = util.FloatPtr(l)
	record.WidthMm = util.FloatPtr(w)
	record.HeightMm = util.FloatPtr(h)
	record.DimensionsText = formatDims(l, w, h)
}

func formatDims(l, w, h float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(l) + "x" + f(w) + "x" + f(h) + " mm"
}
