package internal

import "github.com/google/uuid"

// Glyph is one positioned text fragment extracted from a PDF page.
type Glyph struct {
	Text  string
	X     float64
	Y     float64
	Width float64
	Page  int
}

// FieldName identifies a canonical product field a document column can map to.
type FieldName string

const (
	FieldReference       FieldName = "reference"
	FieldProductName     FieldName = "name"
	FieldDescription     FieldName = "description"
	FieldBrand           FieldName = "brand"
	FieldSupplier        FieldName = "supplier"
	FieldPurchasePrice   FieldName = "purchasePrice"
	FieldSellPriceIncTax FieldName = "sellPriceIncTax"
	FieldWeightKg        FieldName = "weightKg"
	FieldDimensionsText  FieldName = "dimensionsText"
	FieldLengthMm        FieldName = "lengthMm"
	FieldWidthMm         FieldName = "widthMm"
	FieldHeightMm        FieldName = "heightMm"
)

type InputKind string

const (
	InputXLSX      InputKind = "xlsx"
	InputPDF       InputKind = "pdf"
	InputText      InputKind = "text"
	InputHTMLTable InputKind = "html"
)

// CandidateProduct is one record extracted from a supplier document,
// prior to reconciliation against the catalog. String fields are empty
// when absent; numeric fields are nil when absent (0 is a legal value).
type CandidateProduct struct {
	Reference       string
	Name            string
	Description     string
	Brand           string
	Supplier        string
	PurchasePrice   *float64
	SellPriceIncTax *float64
	WeightKg        *float64
	DimensionsText  string
	LengthMm        *float64
	WidthMm         *float64
	HeightMm        *float64
	Selected        bool
	SourceRowIndex  int
}

// CatalogEntry is a read-only snapshot of an existing catalog product.
type CatalogEntry struct {
	ID              uuid.UUID
	Name            string
	Brand           string
	Supplier        string
	PurchasePrice   *float64
	SellPriceIncTax *float64
}

// ReconciledProduct is a CandidateProduct annotated with the outcome of
// matching it against the catalog snapshot.
type ReconciledProduct struct {
	CandidateProduct
	MatchedEntryID   *uuid.UUID
	IsUpdate         bool
	OldPurchasePrice *float64
	OldSellPrice     *float64
	PriceChanged     bool
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// ImportRow is one persisted line of an import session, flattened for
// storage and xlsx export.
type ImportRow struct {
	RowIndex         int
	Source           string
	Reference        string
	Name             string
	Description      string
	Brand            string
	Supplier         string
	PurchasePrice    *float64
	SellPriceIncTax  *float64
	WeightKg         *float64
	DimensionsText   string
	MatchedEntryID   *string
	IsUpdate         bool
	OldPurchasePrice *float64
	OldSellPrice     *float64
	PriceChanged     bool
	Selected         bool
}
