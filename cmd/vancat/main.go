package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alsace-van/catalog-import/internal"
	"github.com/alsace-van/catalog-import/internal/catalog"
	"github.com/alsace-van/catalog-import/internal/config"
	"github.com/alsace-van/catalog-import/internal/connectors"
	gmailconnector "github.com/alsace-van/catalog-import/internal/connectors/gmail"
	imapconnector "github.com/alsace-van/catalog-import/internal/connectors/imap"
	"github.com/alsace-van/catalog-import/internal/listener"
	"github.com/alsace-van/catalog-import/internal/pipeline"
	"github.com/alsace-van/catalog-import/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "catalog:sync":
		svc := catalog.NewSyncService(db, cfg)
		count, err := svc.Sync(context.Background())
		must(err)
		fmt.Printf("catalog sync complete: %d entries\n", count)
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		inType := fs.String("type", "", "xlsx|pdf|text|html")
		output := fs.String("output", "", "output xlsx path")
		updateOnly := fs.Bool("update-only", false, "only select rows matching existing catalog entries")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *inType == "" || *output == "" {
			must(fmt.Errorf("--input --type --output are required"))
		}
		kind, err := parseInputKind(*inType)
		must(err)

		processor := pipeline.NewProcessingService(db, cfg)
		importID, reconciled, err := processor.RunImport(kind, *input, *updateOnly)
		must(err)
		rows := pipeline.ToImportRows(string(kind)+":"+*input, reconciled)
		must(pipeline.ExportRowsToXLSX(rows, *output))
		fmt.Printf("import done id=%d rows=%d output=%s\n", importID, len(rows), *output)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		intake := connectors.NewIntakeService(db, cfg.RawMailDir, conn)
		result, err := intake.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d known=%d\n", *provider, result.Fetched, result.Stored, result.Known)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed email id=%d products=%d\n", res.EmailID, res.Products)
			return
		}
		processedEmails, processedProducts, err := processor.ProcessPending(*batch, *provider)
		must(err)
		fmt.Printf("processed pending emails=%d products=%d\n", processedEmails, processedProducts)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		emailID := fs.Int("emailId", 0, "internal email id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *emailID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--emailId and --out are required"))
		}
		rows, err := db.GetImportRowsByEmail(*emailID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no import rows for emailId=%d", *emailID))
		}
		must(pipeline.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func parseInputKind(value string) (internal.InputKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "xlsx", "xls":
		return internal.InputXLSX, nil
	case "pdf":
		return internal.InputPDF, nil
	case "text":
		return internal.InputText, nil
	case "html":
		return internal.InputHTMLTable, nil
	default:
		return "", fmt.Errorf("unsupported input type: %s", value)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: vancat <command>")
	fmt.Println("commands:")
	fmt.Println("  catalog:sync")
	fmt.Println("  import --input=... --type=xlsx|pdf|text|html --output=...xlsx [--update-only]")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20]")
	fmt.Println("  mail:listen")
	fmt.Println("  export:xlsx --emailId=1 --out=./out/result.xlsx")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
