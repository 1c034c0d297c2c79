package pipeline

import (
	"bytes"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/config"
	"github.com/alsace-van/catalog-import/internal/storage"
)

// ProcessingService runs the import pipeline over fetched supplier
// emails and one-off files, reconciles against the cached catalog
// snapshot and persists the annotated rows for review/export.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type ProcessResult struct {
	EmailID  int
	Products int
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(email)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	processedProducts := 0
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		res, err := s.ProcessEmail(email)
		if err != nil {
			return processedEmails, processedProducts, err
		}
		processedEmails++
		processedProducts += res.Products
	}
	return processedEmails, processedProducts, nil
}

func (s *ProcessingService) ProcessEmail(email internal.EmailRow) (ProcessResult, error) {
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ProcessResult{}, err
	}

	attachmentNames := make([]string, 0, len(env.Attachments))
	for _, att := range env.Attachments {
		attachmentNames = append(attachmentNames, att.FileName)
	}

	subject := firstNonEmpty(env.GetHeader("Subject"), email.Subject)
	detect := DetectPriceList(subject, env.Text, attachmentNames)

	if err := s.db.ClearEmailImports(email.ID); err != nil {
		return ProcessResult{}, err
	}
	if !detect.IsPriceList {
		_ = s.db.UpdateEmailStatus(email.ID, "skipped")
		return ProcessResult{EmailID: email.ID, Products: 0}, nil
	}

	source, candidates := extractFromEnvelope(env)

	catalog, err := s.db.ListCatalogEntries()
	if err != nil {
		return ProcessResult{}, err
	}
	reconciled := Reconcile(candidates, catalog, false)

	importID, err := s.db.InsertImport(uuid.NewString(), &email.ID, source, importCounts(reconciled))
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.InsertImportRows(importID, ToImportRows(source, reconciled)); err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.UpdateEmailStatus(email.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{EmailID: email.ID, Products: len(reconciled)}, nil
}

// RunImport is the one-shot path: a local file instead of an email.
// The import is persisted with no email attached so it shows up in the
// same review/export flow.
func (s *ProcessingService) RunImport(kind internal.InputKind, path string, updateOnly bool) (int64, []internal.ReconciledProduct, error) {
	candidates, err := ExtractFromInput(kind, path)
	if err != nil {
		return 0, nil, err
	}

	catalog, err := s.db.ListCatalogEntries()
	if err != nil {
		return 0, nil, err
	}
	reconciled := Reconcile(candidates, catalog, updateOnly)

	source := string(kind) + ":" + path
	importID, err := s.db.InsertImport(uuid.NewString(), nil, source, importCounts(reconciled))
	if err != nil {
		return 0, nil, err
	}
	if err := s.db.InsertImportRows(importID, ToImportRows(source, reconciled)); err != nil {
		return 0, nil, err
	}
	return importID, reconciled, nil
}

// extractFromEnvelope tries attachments first (spreadsheets, then PDF
// catalogs), then the HTML body, then plain text through the vendor
// extractors. The first non-empty result wins.
func extractFromEnvelope(env *enmime.Envelope) (string, []internal.CandidateProduct) {
	for _, att := range env.Attachments {
		lower := strings.ToLower(att.FileName)
		switch {
		case strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls"):
			grid, err := DecodeXLSXGrid(att.Content)
			if err != nil {
				continue
			}
			if products := ExtractFromGrid(grid); len(products) > 0 {
				return "xlsx:" + att.FileName, products
			}
		case strings.HasSuffix(lower, ".pdf"):
			glyphs, err := DecodePDFGlyphs(att.Content)
			if err != nil {
				continue
			}
			if products := ExtractFromGlyphs(glyphs); len(products) > 0 {
				return "pdf:" + att.FileName, products
			}
		}
	}

	if env.HTML != "" {
		if grid, err := DecodeHTMLGrid(env.HTML); err == nil {
			if products := ExtractFromGrid(grid); len(products) > 0 {
				return "html", products
			}
		}
	}

	if env.Text != "" {
		if products := ExtractFromText(env.Text); len(products) > 0 {
			return "text", products
		}
	}

	return "none", nil
}

// ToImportRows flattens reconciled products for storage and export.
func ToImportRows(source string, products []internal.ReconciledProduct) []internal.ImportRow {
	rows := make([]internal.ImportRow, 0, len(products))
	for _, p := range products {
		row := internal.ImportRow{
			RowIndex:         p.SourceRowIndex,
			Source:           source,
			Reference:        p.Reference,
			Name:             p.Name,
			Description:      p.Description,
			Brand:            p.Brand,
			Supplier:         p.Supplier,
			PurchasePrice:    p.PurchasePrice,
			SellPriceIncTax:  p.SellPriceIncTax,
			WeightKg:         p.WeightKg,
			DimensionsText:   p.DimensionsText,
			IsUpdate:         p.IsUpdate,
			OldPurchasePrice: p.OldPurchasePrice,
			OldSellPrice:     p.OldSellPrice,
			PriceChanged:     p.PriceChanged,
			Selected:         p.Selected,
		}
		if p.MatchedEntryID != nil {
			id := p.MatchedEntryID.String()
			row.MatchedEntryID = &id
		}
		rows = append(rows, row)
	}
	return rows
}

func importCounts(products []internal.ReconciledProduct) map[string]int {
	updates, changed := 0, 0
	for _, p := range products {
		if p.IsUpdate {
			updates++
		}
		if p.PriceChanged {
			changed++
		}
	}
	return map[string]int{
		"extracted":    len(products),
		"updates":      updates,
		"priceChanged": changed,
		"new":          len(products) - updates,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
