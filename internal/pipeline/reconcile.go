package pipeline

import (
	"strings"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/util"
)

const brandMatchPrefixLen = 10

// Reconcile matches candidates against a catalog snapshot and
// classifies each as a price update or a new product. It is a pure
// function of its inputs: the snapshot is never mutated, and no state
// survives the call.
//
// With updateOnly, only matched candidates whose price actually moved
// are pre-selected; new products are deselected entirely.
func Reconcile(candidates []internal.CandidateProduct, catalog []internal.CatalogEntry, updateOnly bool) []internal.ReconciledProduct {
	out := make([]internal.ReconciledProduct, 0, len(candidates))

	for _, candidate := range candidates {
		reconciled := internal.ReconciledProduct{CandidateProduct: candidate}

		entry := matchCatalogEntry(candidate, catalog)
		if entry == nil {
			reconciled.Selected = !updateOnly
			out = append(out, reconciled)
			continue
		}

		id := entry.ID
		reconciled.MatchedEntryID = &id
		reconciled.IsUpdate = true
		reconciled.OldPurchasePrice = entry.PurchasePrice
		reconciled.OldSellPrice = entry.SellPriceIncTax
		reconciled.PriceChanged = priceDiffers(candidate.PurchasePrice, entry.PurchasePrice) ||
			priceDiffers(candidate.SellPriceIncTax, entry.SellPriceIncTax)

		if updateOnly {
			reconciled.Selected = reconciled.PriceChanged
		} else {
			reconciled.Selected = true
		}
		out = append(out, reconciled)
	}

	return out
}

// matchCatalogEntry applies the match heuristics in order, first match
// wins: exact name equality, candidate reference contained in the
// entry name, then same brand plus a shared 10-character name prefix.
// All comparisons are case-insensitive.
func matchCatalogEntry(candidate internal.CandidateProduct, catalog []internal.CatalogEntry) *internal.CatalogEntry {
	name := util.FoldName(candidate.Name)
	ref := util.FoldName(candidate.Reference)
	brand := util.FoldName(candidate.Brand)

	if name != "" {
		for i := range catalog {
			if util.FoldName(catalog[i].Name) == name {
				return &catalog[i]
			}
		}
	}

	if ref != "" {
		for i := range catalog {
			if strings.Contains(util.FoldName(catalog[i].Name), ref) {
				return &catalog[i]
			}
		}
	}

	if brand != "" && name != "" {
		for i := range catalog {
			if util.FoldName(catalog[i].Brand) != brand {
				continue
			}
			entryName := util.FoldName(catalog[i].Name)
			if sharesPrefix(name, entryName) || sharesPrefix(entryName, name) {
				return &catalog[i]
			}
		}
	}

	return nil
}

// sharesPrefix reports whether b contains the first 10 runes of a.
func sharesPrefix(a, b string) bool {
	prefix := util.Truncate(a, brandMatchPrefixLen)
	if len([]rune(prefix)) < brandMatchPrefixLen {
		return false
	}
	return strings.Contains(b, prefix)
}

// priceDiffers reports a price change: the candidate carries a value
// and the stored one is absent or numerically different.
func priceDiffers(candidate, stored *float64) bool {
	if candidate == nil {
		return false
	}
	if stored == nil {
		return true
	}
	return *candidate != *stored
}
