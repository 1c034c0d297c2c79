package connectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
}

func (s stubConnector) FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error) {
	return s.messages, nil
}

func TestIntakeStoresOnce(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	conn := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@example.com>", Subject: "Tarif", Raw: []byte("raw a")},
		{Provider: "imap", MessageID: "<b@example.com>", Subject: "Tarif 2", Raw: []byte("raw b")},
	}}
	rawDir := filepath.Join(tmp, "raw")
	svc := NewIntakeService(db, rawDir, conn)

	res, err := svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 2 || res.Stored != 2 || res.Known != 0 {
		t.Fatalf("first run: %+v", res)
	}

	// Polling again must not duplicate anything.
	res, err = svc.FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 2 || res.Stored != 0 || res.Known != 2 {
		t.Fatalf("second run: %+v", res)
	}

	files, err := os.ReadDir(rawDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("raw files=%d", len(files))
	}

	emails, err := db.ListEmailsByStatus("fetched", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(emails) != 2 {
		t.Fatalf("emails=%d", len(emails))
	}
}

func TestIntakeRestoresChangedMessage(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rawDir := filepath.Join(tmp, "raw")
	first := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@example.com>", Raw: []byte("draft")},
	}}
	if _, err := NewIntakeService(db, rawDir, first).FetchAndStore("INBOX", 10); err != nil {
		t.Fatal(err)
	}

	// Same message-id, new content: the store must pick up the new raw.
	second := stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@example.com>", Raw: []byte("final")},
	}}
	res, err := NewIntakeService(db, rawDir, second).FetchAndStore("INBOX", 10)
	if err != nil {
		t.Fatal(err)
	}
	if res.Stored != 1 || res.Known != 0 {
		t.Fatalf("changed message: %+v", res)
	}

	email, err := db.MustEmailByProviderMessageID("imap", "<a@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(email.RawRef)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "final" {
		t.Fatalf("raw=%q", blob)
	}
}
