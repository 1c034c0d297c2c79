package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/util"
)

// vendorExtractor is one supplier-specific strategy for PDFs that carry
// no recoverable table. matches is a fingerprint test over the full
// document text; extract works line by line.
type vendorExtractor struct {
	name    string
	matches func(lowerText string) bool
	extract func(lines []string) []internal.CandidateProduct
}

var vendorRegistry = []vendorExtractor{
	ultimatronExtractor,
	popTopExtractor,
}

// extractByVendor runs the first extractor whose fingerprint matches.
// An unknown document yields an empty list, never an error.
func extractByVendor(text string) []internal.CandidateProduct {
	lower := strings.ToLower(text)
	for _, v := range vendorRegistry {
		if v.matches(lower) {
			return v.extract(util.SplitLines(text))
		}
	}
	return nil
}

// contextWindow bounds the lines inspected after a reference match:
// at most maxLines, and never past the next reference line so one
// product's data cannot bleed into another's. nextRefIndex < 0 means
// no further reference was found.
func contextWindow(lines []string, startIndex, nextRefIndex, maxLines int) []string {
	end := startIndex + maxLines
	if nextRefIndex >= 0 && nextRefIndex < end {
		end = nextRefIndex
	}
	if end > len(lines) {
		end = len(lines)
	}
	if startIndex >= end {
		return nil
	}
	return lines[startIndex:end]
}

var (
	vendorDimsPattern  = regexp.MustCompile(`(\d{2,4})\s*\*\s*(\d{2,4})\s*\*\s*(\d{2,4})`)
	vendorPricePattern = regexp.MustCompile(`(\d+(?:\s\d{3})*(?:[.,]\d{1,2})?)\s*€`)
	weightPattern      = regexp.MustCompile(`\d{1,2}[.,]\d`)
)

// parseVendorDims fills the dimension fields from a NUM*NUM*NUM triple
// anywhere in the window.
func parseVendorDims(record *internal.CandidateProduct, window []string) {
	for _, line := range window {
		m := vendorDimsPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		l := util.ParsePrice(m[1])
		w := util.ParsePrice(m[2])
		h := util.ParsePrice(m[3])
		record.LengthMm = util.FloatPtr(l)
		record.WidthMm = util.FloatPtr(w)
		record.HeightMm = util.FloatPtr(h)
		record.DimensionsText = formatDims(l, w, h)
		return
	}
}

// parseVendorWeight picks the first plausible weight in the window.
// A decimal immediately followed by a currency symbol is a price, not a
// weight; digits touching either side mean the match is a fragment of a
// larger number.
func parseVendorWeight(record *internal.CandidateProduct, window []string) {
	for _, line := range window {
		for _, loc := range weightPattern.FindAllStringIndex(line, -1) {
			if loc[0] > 0 && isDigit(line[loc[0]-1]) {
				continue
			}
			rest := strings.TrimLeft(line[loc[1]:], " ")
			if rest != "" && (isDigit(rest[0]) || strings.HasPrefix(rest, "€")) {
				continue
			}
			v := util.ParsePrice(line[loc[0]:loc[1]])
			if v >= 0.5 && v <= 60 {
				record.WeightKg = util.FloatPtr(v)
				return
			}
		}
	}
}

// parseVendorPrices collects up to two currency-suffixed amounts from
// the window. With two, the lower is the purchase price and the higher
// the public sell price; a lone amount is the sell price.
func parseVendorPrices(record *internal.CandidateProduct, window []string) {
	amounts := make([]float64, 0, 2)
	for _, line := range window {
		for _, m := range vendorPricePattern.FindAllStringSubmatch(line, -1) {
			v := util.ParsePrice(m[1])
			if v <= 0 {
				continue
			}
			amounts = append(amounts, v)
			if len(amounts) == 2 {
				break
			}
		}
		if len(amounts) == 2 {
			break
		}
	}

	switch len(amounts) {
	case 1:
		record.SellPriceIncTax = util.FloatPtr(amounts[0])
	case 2:
		lo, hi := amounts[0], amounts[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		record.PurchasePrice = util.FloatPtr(lo)
		record.SellPriceIncTax = util.FloatPtr(hi)
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// scanVendorRefs walks the lines with a reference pattern and yields
// one candidate per previously unseen reference, with its bounded
// context window. The seen set is scoped to this call.
func scanVendorRefs(lines []string, refPattern *regexp.Regexp, maxWindow int, build func(ref string, window []string) internal.CandidateProduct) []internal.CandidateProduct {
	refAt := make([]string, len(lines))
	for i, line := range lines {
		refAt[i] = refPattern.FindString(line)
	}

	seen := map[string]struct{}{}
	out := []internal.CandidateProduct{}
	for i, ref := range refAt {
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}

		next := -1
		for j := i + 1; j < len(refAt); j++ {
			if refAt[j] != "" {
				next = j
				break
			}
		}

		window := contextWindow(lines, i+1, next, maxWindow)
		out = append(out, build(ref, window))
	}
	return out
}

// sortByFamily orders products by the vendor's family rank (derived
// from the reference prefix) and lexicographically within one family.
// Unknown prefixes sort last.
func sortByFamily(products []internal.CandidateProduct, rank func(ref string) int) {
	sort.SliceStable(products, func(i, j int) bool {
		ri, rj := rank(products[i].Reference), rank(products[j].Reference)
		if ri != rj {
			return ri < rj
		}
		return products[i].Reference < products[j].Reference
	})
}
