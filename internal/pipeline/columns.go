package pipeline

import (
	"strings"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/util"
)

// columnSpec binds a canonical field to the header keywords that select
// it. Specs are scanned in order and the first keyword hit wins, so the
// more specific fields come first.
type columnSpec struct {
	field    internal.FieldName
	keywords []string
}

var spreadsheetColumnSpecs = []columnSpec{
	{internal.FieldReference, []string{"référence", "reference", "réf.", "réf ", "ref.", "ref ", "sku", "code article", "code"}},
	{internal.FieldPurchasePrice, []string{"prix ht", "prix d'achat", "achat", "tarif ht", "p.a.", "net"}},
	{internal.FieldSellPriceIncTax, []string{"prix ttc", "prix de vente", "vente", "ppc", "public", "ttc"}},
	{internal.FieldProductName, []string{"désignation", "designation", "libellé", "libelle", "intitulé", "nom", "name", "produit", "article"}},
	{internal.FieldDescription, []string{"description", "descriptif", "détail", "detail"}},
	{internal.FieldBrand, []string{"marque", "brand", "fabricant"}},
	{internal.FieldSupplier, []string{"fournisseur", "supplier", "grossiste"}},
	{internal.FieldWeightKg, []string{"poids", "weight", "kg"}},
	{internal.FieldLengthMm, []string{"longueur", "length"}},
	{internal.FieldWidthMm, []string{"largeur", "width"}},
	{internal.FieldHeightMm, []string{"hauteur", "height"}},
	{internal.FieldDimensionsText, []string{"dimension", "taille", "encombrement"}},
}

var numericFields = map[internal.FieldName]bool{
	internal.FieldPurchasePrice:   true,
	internal.FieldSellPriceIncTax: true,
	internal.FieldWeightKg:        true,
	internal.FieldLengthMm:        true,
	internal.FieldWidthMm:         true,
	internal.FieldHeightMm:        true,
}

// MapColumns maps free-text header cells to canonical fields. The
// returned map is keyed by lower-cased, trimmed header text. Headers
// matching no spec are absent from the map; duplicate field assignment
// across columns is legal here and resolved last-write-wins when rows
// are materialized.
func MapColumns(headers []string) map[string]internal.FieldName {
	out := map[string]internal.FieldName{}
	for _, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if key == "" {
			continue
		}
		if field, ok := matchColumnSpec(spreadsheetColumnSpecs, key); ok {
			out[key] = field
		}
	}
	return out
}

func matchColumnSpec(specs []columnSpec, header string) (internal.FieldName, bool) {
	for _, spec := range specs {
		for _, kw := range spec.keywords {
			if strings.Contains(header, kw) {
				return spec.field, true
			}
		}
	}
	return "", false
}

// BuildRecord materializes one spreadsheet row into a candidate product
// using a header-to-field mapping from MapColumns. Numeric fields go
// through the price normalizer; everything else is stored trimmed.
func BuildRecord(headers, cells []string, mapping map[string]internal.FieldName, rowIndex int) internal.CandidateProduct {
	record := internal.CandidateProduct{Selected: true, SourceRowIndex: rowIndex}

	for i, header := range headers {
		if i >= len(cells) {
			break
		}
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}
		field, ok := mapping[strings.ToLower(strings.TrimSpace(header))]
		if !ok {
			continue
		}
		setField(&record, field, value)
	}

	if record.Name == "" {
		record.Name = record.Reference
	}
	if record.Name == "" && record.Description != "" {
		record.Name = util.Truncate(record.Description, 100)
	}
	return record
}

func setField(record *internal.CandidateProduct, field internal.FieldName, value string) {
	if numericFields[field] {
		parsed := util.ParsePricePtr(value)
		if parsed == nil {
			return
		}
		switch field {
		case internal.FieldPurchasePrice:
			record.PurchasePrice = parsed
		case internal.FieldSellPriceIncTax:
			record.SellPriceIncTax = parsed
		case internal.FieldWeightKg:
			record.WeightKg = parsed
		case internal.FieldLengthMm:
			record.LengthMm = parsed
		case internal.FieldWidthMm:
			record.WidthMm = parsed
		case internal.FieldHeightMm:
			record.HeightMm = parsed
		}
		return
	}

	switch field {
	case internal.FieldReference:
		record.Reference = value
	case internal.FieldProductName:
		record.Name = value
	case internal.FieldDescription:
		record.Description = value
	case internal.FieldBrand:
		record.Brand = value
	case internal.FieldSupplier:
		record.Supplier = value
	case internal.FieldDimensionsText:
		record.DimensionsText = value
	}
}
