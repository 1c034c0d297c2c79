package pipeline

import (
	"testing"

	"github.com/google/uuid"

	"github.com/alsace-van/catalog-import/internal"
)

func entry(name, brand string, purchase, sell *float64) internal.CatalogEntry {
	return internal.CatalogEntry{
		ID:              uuid.New(),
		Name:            name,
		Brand:           brand,
		PurchasePrice:   purchase,
		SellPriceIncTax: sell,
	}
}

func TestReconcileExactName(t *testing.T) {
	catalog := []internal.CatalogEntry{
		entry("Batterie Lithium 100Ah", "Ultimatron", fp(300), fp(420)),
	}
	candidates := []internal.CandidateProduct{
		{Name: "batterie lithium 100ah", SellPriceIncTax: fp(459)},
	}

	out := Reconcile(candidates, catalog, false)
	if len(out) != 1 {
		t.Fatalf("len=%d", len(out))
	}
	p := out[0]
	if !p.IsUpdate || p.MatchedEntryID == nil || *p.MatchedEntryID != catalog[0].ID {
		t.Fatalf("match: %+v", p)
	}
	if !p.PriceChanged {
		t.Fatal("sell price moved, PriceChanged must be set")
	}
	if p.OldSellPrice == nil || *p.OldSellPrice != 420 {
		t.Fatalf("old sell: %+v", p.OldSellPrice)
	}
	if !p.Selected {
		t.Fatal("updates are pre-selected")
	}
}

func TestReconcileReferenceInName(t *testing.T) {
	catalog := []internal.CatalogEntry{
		entry("Batterie ULS-12-100 Ultimatron", "Ultimatron", nil, fp(459)),
	}
	candidates := []internal.CandidateProduct{
		{Reference: "ULS-12-100", Name: "Batterie Smart BMS", SellPriceIncTax: fp(459)},
	}

	out := Reconcile(candidates, catalog, false)
	if !out[0].IsUpdate {
		t.Fatalf("reference should match entry name: %+v", out[0])
	}
	if out[0].PriceChanged {
		t.Fatal("identical price must not flag a change")
	}
}

func TestReconcileBrandPrefix(t *testing.T) {
	catalog := []internal.CatalogEntry{
		entry("Toit relevable 3200 complet", "SCA", nil, nil),
	}
	candidates := []internal.CandidateProduct{
		{Name: "Toit relevable 3200", Brand: "sca", PurchasePrice: fp(2890)},
	}

	out := Reconcile(candidates, catalog, false)
	if !out[0].IsUpdate {
		t.Fatalf("brand+prefix should match: %+v", out[0])
	}
	// Stored price absent, candidate present: that is a change.
	if !out[0].PriceChanged {
		t.Fatal("expected PriceChanged")
	}
}

func TestReconcileShortNamesDontPrefixMatch(t *testing.T) {
	catalog := []internal.CatalogEntry{
		entry("Vis M6", "SCA", nil, nil),
	}
	candidates := []internal.CandidateProduct{
		{Name: "Vis M8", Brand: "SCA"},
	}

	out := Reconcile(candidates, catalog, false)
	if out[0].IsUpdate {
		t.Fatal("names shorter than the prefix length must not match")
	}
}

func TestReconcileUpdateOnly(t *testing.T) {
	catalog := []internal.CatalogEntry{
		entry("Batterie Lithium 100Ah", "Ultimatron", fp(300), fp(420)),
		entry("Chargeur 20A", "Ultimatron", fp(100), fp(149)),
	}
	candidates := []internal.CandidateProduct{
		{Name: "Batterie Lithium 100Ah", SellPriceIncTax: fp(459)}, // changed
		{Name: "Chargeur 20A", SellPriceIncTax: fp(149)},           // unchanged
		{Name: "Produit inconnu", SellPriceIncTax: fp(99)},         // new
	}

	out := Reconcile(candidates, catalog, true)
	if !out[0].Selected {
		t.Fatal("changed price should stay selected")
	}
	if out[1].Selected {
		t.Fatal("unchanged price should be deselected")
	}
	if out[2].Selected || out[2].IsUpdate {
		t.Fatalf("new product in update-only mode: %+v", out[2])
	}
}
