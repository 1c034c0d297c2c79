package pipeline

import (
	"regexp"
	"strings"

	"github.com/alsace-van/catalog-import/internal"
)

// Pop-top roof ("toit relevable") price lists: roof kits referenced
// TRnnnn, chassis adaptation kits ADnnnn, a suffix letter for the
// variant. Specs follow each reference over a handful of lines.

var popTopRefPattern = regexp.MustCompile(`\b(?:TR|AD)\d{3,4}[A-Z]{0,2}\b`)

const popTopWindowLines = 5

var popTopExtractor = vendorExtractor{
	name: "poptop",
	matches: func(lowerText string) bool {
		return strings.Contains(lowerText, "toit relevable")
	},
	extract: extractPopTop,
}

func extractPopTop(lines []string) []internal.CandidateProduct {
	products := scanVendorRefs(lines, popTopRefPattern, popTopWindowLines, func(ref string, window []string) internal.CandidateProduct {
		record := internal.CandidateProduct{
			Reference: ref,
			Name:      describePopTopRef(ref),
			Selected:  true,
		}
		parseVendorDims(&record, window)
		parseVendorWeight(&record, window)
		parseVendorPrices(&record, window)
		return record
	})

	sortByFamily(products, popTopRank)
	for i := range products {
		products[i].SourceRowIndex = i
	}
	return products
}

// Roofs before adaptation kits, unknown families last.
func popTopRank(ref string) int {
	switch {
	case strings.HasPrefix(ref, "TR"):
		return 0
	case strings.HasPrefix(ref, "AD"):
		return 1
	default:
		return 99
	}
}

func describePopTopRef(ref string) string {
	model := strings.TrimLeft(ref, "TRAD")
	if strings.HasPrefix(ref, "AD") {
		return "Kit d'adaptation toit relevable " + model
	}
	return "Toit relevable " + model
}
