package pipeline

import (
	"regexp"
	"strings"

	"github.com/alsace-van/catalog-import/internal"
)

// Ultimatron lithium battery catalogs: free-text PDFs, one SKU per
// block, data (dims, weight, prices) on the lines below the SKU.

var ultimatronRefPattern = regexp.MustCompile(`\bUL[A-Z]{0,2}-\d{2}-\d{1,3}[A-Z]{0,4}\b`)

const ultimatronWindowLines = 6

// Family order mirrors the supplier's own catalog: smart batteries
// first, under-seat formats, then chargers and accessories.
var ultimatronFamilyRank = map[string]int{
	"ULS": 0,
	"ULM": 1,
	"ULB": 2,
	"ULC": 3,
}

var ultimatronExtractor = vendorExtractor{
	name: "ultimatron",
	matches: func(lowerText string) bool {
		return strings.Contains(lowerText, "ultimatron") || strings.Contains(lowerText, "lifepo4")
	},
	extract: extractUltimatron,
}

func extractUltimatron(lines []string) []internal.CandidateProduct {
	products := scanVendorRefs(lines, ultimatronRefPattern, ultimatronWindowLines, func(ref string, window []string) internal.CandidateProduct {
		record := internal.CandidateProduct{
			Reference: ref,
			Name:      describeUltimatronRef(ref),
			Brand:     "Ultimatron",
			Supplier:  "Ultimatron",
			Selected:  true,
		}
		parseVendorDims(&record, window)
		parseVendorWeight(&record, window)
		parseVendorPrices(&record, window)
		return record
	})

	sortByFamily(products, ultimatronRank)
	for i := range products {
		products[i].SourceRowIndex = i
	}
	return products
}

func ultimatronRank(ref string) int {
	if rank, ok := ultimatronFamilyRank[refPrefix(ref)]; ok {
		return rank
	}
	return 99
}

func refPrefix(ref string) string {
	if i := strings.IndexByte(ref, '-'); i > 0 {
		return ref[:i]
	}
	return ref
}

// describeUltimatronRef derives a readable designation from the SKU
// alone: family, voltage segment, capacity digits, option suffix. The
// PDFs carry no usable free-text designation, so this lookup table is
// the product name.
func describeUltimatronRef(ref string) string {
	parts := []string{ultimatronFamilyLabel(refPrefix(ref))}

	switch {
	case strings.Contains(ref, "-12-"):
		parts = append(parts, "12V")
	case strings.Contains(ref, "-24-"):
		parts = append(parts, "24V")
	case strings.Contains(ref, "-36-"):
		parts = append(parts, "36V")
	}

	if capacity := ultimatronCapacity(ref); capacity != "" {
		parts = append(parts, capacity)
	}

	if strings.HasSuffix(ref, "BT") {
		parts = append(parts, "Bluetooth")
	}
	if strings.HasSuffix(ref, "H") {
		parts = append(parts, "chauffante")
	}

	return strings.Join(parts, " ")
}

func ultimatronFamilyLabel(prefix string) string {
	switch prefix {
	case "ULS":
		return "Batterie Lithium LiFePO4 Smart BMS"
	case "ULM":
		return "Batterie Lithium LiFePO4 sous siège"
	case "ULB":
		return "Batterie Lithium LiFePO4 bornier"
	case "ULC":
		return "Chargeur Ultimatron"
	default:
		return "Ultimatron " + prefix
	}
}

var ultimatronCapacityPattern = regexp.MustCompile(`-(\d{1,3})[A-Z]{0,4}$`)

func ultimatronCapacity(ref string) string {
	m := ultimatronCapacityPattern.FindStringSubmatch(ref)
	if m == nil {
		return ""
	}
	if refPrefix(ref) == "ULC" {
		return m[1] + "A"
	}
	return m[1] + "Ah"
}
