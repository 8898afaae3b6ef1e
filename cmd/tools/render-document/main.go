// cmd/tools/render-document/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"application-documents/internal/common/config"
	"application-documents/internal/common/database"
	apphttp "application-documents/internal/common/http"
	"application-documents/internal/common/logger"
	"application-documents/internal/document"
	"application-documents/internal/pdf"
	"application-documents/internal/repository"
	"application-documents/internal/view"
)

func main() {
	id := flag.String("id", "", "Application ID (UUID)")
	baseURI := flag.String("base-uri", "", "Template base URI (defaults to document.base_uri)")
	out := flag.String("out", "", "Output file (defaults to <id>.pdf)")
	configPath := flag.String("config", "", "Path to config file (defaults to ./configs/config.yaml lookup)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	applicationID, err := uuid.Parse(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -id must be a UUID: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, "console", "stderr")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	generator, err := document.NewGenerator(
		repository.NewApplicationRepository(pg.DB),
		view.NewStaticResolver(cfg.Document.Templates),
		view.NewTemplateRenderer(apphttp.NewClient(config.GetDuration(cfg.Document.TemplateTimeout)), 0),
		pdf.NewRenderer(pdf.Config{
			PageSize:    cfg.PDF.PageSize,
			Orientation: cfg.PDF.Orientation,
			FontFamily:  cfg.PDF.FontFamily,
			FontSize:    cfg.PDF.FontSize,
		}),
		config.NewSettings(viper.GetViper()),
		log,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating generator: %v\n", err)
		os.Exit(1)
	}

	if *baseURI == "" {
		*baseURI = cfg.Document.BaseURI
	}
	if *out == "" {
		*out = applicationID.String() + ".pdf"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	doc := generator.Generate(ctx, applicationID, *baseURI)
	if doc == nil {
		fmt.Fprintf(os.Stderr, "No document generated for application %s\n", applicationID)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, doc, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", *out, len(doc))
}
