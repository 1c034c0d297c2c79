package connectors

import "github.com/alsace-van/catalog-import/internal"

// MailConnector fetches raw supplier mail from one provider.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
