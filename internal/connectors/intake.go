package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/alsace-van/catalog-import/internal/storage"
)

// IntakeService pulls messages from a connector and lands them for the
// processing pipeline: raw MIME on disk keyed by content hash, one row
// per (provider, messageId) in sqlite. A message the store already
// holds with the same content is counted as known and not re-stored,
// so providers without server-side read tracking can be polled safely.
type IntakeService struct {
	db         *storage.DB
	connector  MailConnector
	rawMailDir string
}

type IntakeResult struct {
	Fetched int
	Stored  int
	Known   int
}

func NewIntakeService(db *storage.DB, rawMailDir string, connector MailConnector) *IntakeService {
	return &IntakeService{db: db, connector: connector, rawMailDir: rawMailDir}
}

func (s *IntakeService) FetchAndStore(label string, max int) (IntakeResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return IntakeResult{}, err
	}

	result := IntakeResult{Fetched: len(messages)}
	for _, msg := range messages {
		hashBytes := sha256.Sum256(msg.Raw)
		hash := hex.EncodeToString(hashBytes[:])

		existing, err := s.db.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return result, err
		}
		if existing != nil && existing.Hash == hash {
			result.Known++
			continue
		}

		if err := s.writeRaw(hash, msg.Raw); err != nil {
			return result, err
		}
		rawPath := filepath.Join(s.rawMailDir, hash+".eml")
		if _, err := s.db.UpsertEmail(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched"); err != nil {
			return result, err
		}
		result.Stored++
	}

	return result, nil
}

func (s *IntakeService) writeRaw(hash string, raw []byte) error {
	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return err
	}
	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		return os.WriteFile(rawPath, raw, 0o644)
	}
	return nil
}
