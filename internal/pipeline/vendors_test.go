package pipeline

import (
	"strings"
	"testing"

	"github.com/alsace-van/catalog-import/internal"
)

const ultimatronSample = `Tarifs revendeur Ultimatron France
ULM-12-150
Batterie lithium sous siège
328*172*212
11,8 kg
Prix revendeur 499,00 € PVP 699,00 €
ULS-12-100
Garantie 5 ans
13,2 kg
329,00 € 459,00 €
ULS-12-100
doublon dans le sommaire
ULC-12-20
Chargeur embarqué
149,00 €
`

func TestExtractUltimatron(t *testing.T) {
	products := ExtractFromText(ultimatronSample)
	if len(products) != 3 {
		t.Fatalf("len=%d", len(products))
	}

	// Family order: ULS before ULM before ULC, duplicates collapsed.
	refs := []string{products[0].Reference, products[1].Reference, products[2].Reference}
	if refs[0] != "ULS-12-100" || refs[1] != "ULM-12-150" || refs[2] != "ULC-12-20" {
		t.Fatalf("order: %v", refs)
	}
	for i, p := range products {
		if p.SourceRowIndex != i {
			t.Fatalf("rowIndex[%d]=%d", i, p.SourceRowIndex)
		}
	}

	uls := products[0]
	if uls.Name != "Batterie Lithium LiFePO4 Smart BMS 12V 100Ah" {
		t.Fatalf("name=%q", uls.Name)
	}
	if uls.Brand != "Ultimatron" || uls.Supplier != "Ultimatron" {
		t.Fatalf("brand/supplier: %+v", uls)
	}
	if uls.WeightKg == nil || *uls.WeightKg != 13.2 {
		t.Fatalf("weight: %+v", uls.WeightKg)
	}
	if uls.PurchasePrice == nil || *uls.PurchasePrice != 329 {
		t.Fatalf("purchase: %+v", uls.PurchasePrice)
	}
	if uls.SellPriceIncTax == nil || *uls.SellPriceIncTax != 459 {
		t.Fatalf("sell: %+v", uls.SellPriceIncTax)
	}

	ulm := products[1]
	if ulm.LengthMm == nil || *ulm.LengthMm != 328 || ulm.DimensionsText != "328x172x212 mm" {
		t.Fatalf("dims: %+v", ulm)
	}

	// Lone amount is the public price.
	ulc := products[2]
	if ulc.PurchasePrice != nil {
		t.Fatalf("lone price must not fill purchase: %+v", ulc.PurchasePrice)
	}
	if ulc.SellPriceIncTax == nil || *ulc.SellPriceIncTax != 149 {
		t.Fatalf("sell: %+v", ulc.SellPriceIncTax)
	}
	if ulc.Name != "Chargeur Ultimatron 12V 20A" {
		t.Fatalf("name=%q", ulc.Name)
	}
}

func TestExtractPopTop(t *testing.T) {
	sample := `Tarif toit relevable 2026
AD1001
Kit châssis
299,00 €
TR3200B
1920*1300*350
24,5 kg
2 890,00 € 3 590,00 €
`
	products := ExtractFromText(sample)
	if len(products) != 2 {
		t.Fatalf("len=%d", len(products))
	}
	// Roofs sort before adaptation kits regardless of document order.
	if products[0].Reference != "TR3200B" || products[1].Reference != "AD1001" {
		t.Fatalf("order: %s %s", products[0].Reference, products[1].Reference)
	}
	if products[0].Name != "Toit relevable 3200B" {
		t.Fatalf("name=%q", products[0].Name)
	}
	if products[1].Name != "Kit d'adaptation toit relevable 1001" {
		t.Fatalf("name=%q", products[1].Name)
	}
	if products[0].PurchasePrice == nil || *products[0].PurchasePrice != 2890 {
		t.Fatalf("purchase: %+v", products[0].PurchasePrice)
	}
}

func TestExtractVendorNbspPrice(t *testing.T) {
	// PDF text extraction yields non-breaking spaces in thousands gaps;
	// the amount must survive whole, not as its last group.
	sample := "Tarif toit relevable 2026\nTR3200\n2\u00a0890,00 €\n"
	products := ExtractFromText(sample)
	if len(products) != 1 {
		t.Fatalf("len=%d", len(products))
	}
	if products[0].SellPriceIncTax == nil || *products[0].SellPriceIncTax != 2890 {
		t.Fatalf("sell: %+v", products[0].SellPriceIncTax)
	}
}

func TestExtractByVendorUnknown(t *testing.T) {
	if got := ExtractFromText("bonjour, voici notre catalogue papier"); len(got) != 0 {
		t.Fatalf("unknown vendor should yield nothing, got %v", got)
	}
}

func TestContextWindow(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	if got := contextWindow(lines, 1, -1, 2); strings.Join(got, ",") != "b,c" {
		t.Fatalf("got %v", got)
	}
	// Window stops at the next reference line.
	if got := contextWindow(lines, 1, 2, 4); strings.Join(got, ",") != "b" {
		t.Fatalf("got %v", got)
	}
	if got := contextWindow(lines, 4, -1, 4); strings.Join(got, ",") != "e" {
		t.Fatalf("got %v", got)
	}
	if got := contextWindow(lines, 2, 2, 4); got != nil {
		t.Fatalf("empty window expected, got %v", got)
	}
}

func TestParseVendorWeight(t *testing.T) {
	cases := []struct {
		line string
		want *float64
	}{
		{"11,8 kg", fp(11.8)},
		{"poids 24.5", fp(24.5)},
		{"199,9 €", nil},     // price, not weight
		{"328*172*212", nil}, // no decimal separator
		{"0,2 kg", nil},      // below plausible range
		{"75,0 kg", nil},     // above plausible range
	}
	for _, tc := range cases {
		var record internal.CandidateProduct
		parseVendorWeight(&record, []string{tc.line})
		if tc.want == nil {
			if record.WeightKg != nil {
				t.Fatalf("%q: unexpected weight %v", tc.line, *record.WeightKg)
			}
			continue
		}
		if record.WeightKg == nil || *record.WeightKg != *tc.want {
			t.Fatalf("%q: weight=%v want=%v", tc.line, record.WeightKg, *tc.want)
		}
	}
}

func fp(v float64) *float64 { return &v }
