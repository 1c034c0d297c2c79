package pipeline

import (
	"testing"

	"github.com/alsace-van/catalog-import/internal"
)

func TestMapColumns(t *testing.T) {
	headers := []string{"Référence", "Désignation", "Prix HT", "Prix TTC", "Quantité", ""}
	mapping := MapColumns(headers)

	want := map[string]internal.FieldName{
		"référence":   internal.FieldReference,
		"désignation": internal.FieldProductName,
		"prix ht":     internal.FieldPurchasePrice,
		"prix ttc":    internal.FieldSellPriceIncTax,
	}
	if len(mapping) != len(want) {
		t.Fatalf("mapping size=%d want=%d (%v)", len(mapping), len(want), mapping)
	}
	for key, field := range want {
		if mapping[key] != field {
			t.Fatalf("%s mapped to %s, want %s", key, mapping[key], field)
		}
	}
	if _, ok := mapping["quantité"]; ok {
		t.Fatal("unknown header should stay unmapped")
	}
}

func TestMapColumnsPriceBeforeName(t *testing.T) {
	// "prix de vente" contains "vente" (sell) and nothing from the name
	// specs; "code article" must hit the reference spec, not the name one.
	mapping := MapColumns([]string{"Code article", "Prix de vente"})
	if mapping["code article"] != internal.FieldReference {
		t.Fatalf("code article mapped to %s", mapping["code article"])
	}
	if mapping["prix de vente"] != internal.FieldSellPriceIncTax {
		t.Fatalf("prix de vente mapped to %s", mapping["prix de vente"])
	}
}

func TestExtractFromGrid(t *testing.T) {
	grid := [][]string{
		{"Référence", "Désignation", "Prix HT", "Prix TTC", "Poids"},
		{"BAT-100", "Batterie 100Ah", "250,00 €", "349,90 €", "11,8"},
		{"BAT-200", "", "", "599,00 €", ""},
		{"", "", "", "", ""},
	}

	products := ExtractFromGrid(grid)
	if len(products) != 2 {
		t.Fatalf("len=%d", len(products))
	}

	p := products[0]
	if p.Reference != "BAT-100" || p.Name != "Batterie 100Ah" {
		t.Fatalf("identity: %+v", p)
	}
	if p.PurchasePrice == nil || *p.PurchasePrice != 250 {
		t.Fatalf("purchase: %+v", p.PurchasePrice)
	}
	if p.SellPriceIncTax == nil || *p.SellPriceIncTax != 349.9 {
		t.Fatalf("sell: %+v", p.SellPriceIncTax)
	}
	if p.WeightKg == nil || *p.WeightKg != 11.8 {
		t.Fatalf("weight: %+v", p.WeightKg)
	}
	if p.SourceRowIndex != 1 {
		t.Fatalf("rowIndex=%d", p.SourceRowIndex)
	}

	// Nameless row falls back to the reference.
	if products[1].Name != "BAT-200" {
		t.Fatalf("fallback name=%q", products[1].Name)
	}
}

func TestExtractFromGridRejectsUnmappable(t *testing.T) {
	if got := ExtractFromGrid([][]string{{"Foo", "Bar"}, {"a", "b"}}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := ExtractFromGrid([][]string{{"Référence"}}); got != nil {
		t.Fatalf("single row should yield nil, got %v", got)
	}
}
