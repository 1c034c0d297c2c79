package pipeline

import "strings"

type DetectResult struct {
	IsPriceList bool
	Score       float64
	Reason      string
}

var priceListKeywords = []string{"tarif", "price list", "prix", "catalogue", "nouveauté", "augmentation", "révision"}

// DetectPriceList scores an incoming email for "supplier price list"
// likelihood before the pipeline is run on its attachments. Pure
// keyword/attachment heuristics, same contract as the rest of the
// pipeline: never errors, just a score.
func DetectPriceList(subject, text string, attachmentNames []string) DetectResult {
	subject = strings.ToLower(subject)
	text = strings.ToLower(text)

	score := 0.0
	for _, kw := range priceListKeywords {
		if strings.Contains(subject, kw) {
			score += 0.25
		}
		if strings.Contains(text, kw) {
			score += 0.1
		}
	}

	euroHits := strings.Count(text, "€")
	if euroHits >= 3 {
		score += 0.3
	} else if euroHits > 0 {
		score += 0.15
	}

	for _, name := range attachmentNames {
		ln := strings.ToLower(name)
		if strings.HasSuffix(ln, ".xlsx") || strings.HasSuffix(ln, ".xls") || strings.HasSuffix(ln, ".pdf") {
			score += 0.3
			break
		}
	}

	if score > 1 {
		score = 1
	}

	isPriceList := score >= 0.45
	reason := "rules_negative"
	if isPriceList {
		reason = "rules_positive"
	}

	return DetectResult{IsPriceList: isPriceList, Score: score, Reason: reason}
}
