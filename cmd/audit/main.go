// Command audit runs SEO audits from the command line and inspects past
// runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"cms_syncer/internal/config"
	"cms_syncer/internal/domain"
	"cms_syncer/internal/service"
	"cms_syncer/internal/source/analytics"
	"cms_syncer/internal/source/searchconsole"
	"cms_syncer/internal/source/seo"
	"cms_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runDomain := flag.String("run", "", "domain to audit")
	propertyID := flag.String("property", "", "analytics property id for the audited domain")
	getID := flag.Int64("get", 0, "audit id to fetch")
	list := flag.Bool("list", false, "list audits")
	listDomain := flag.String("domain", "", "filter listed audits by domain")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall audit timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	audits := service.NewAuditService(postgres.NewAuditStore(db), buildSources(cfg, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch {
	case *runDomain != "":
		record, err := audits.RunAudit(ctx, domain.AuditTarget{
			Domain:              *runDomain,
			AnalyticsPropertyID: *propertyID,
			MaxCrawlPages:       cfg.Sync.MaxCrawlPages,
		})
		if err != nil {
			logger.Error("audit failed", "error", err)
			os.Exit(1)
		}
		printJSON(record)
	case *getID != 0:
		record, err := audits.GetAudit(ctx, *getID)
		if err != nil {
			logger.Error("failed to fetch audit", "error", err)
			os.Exit(1)
		}
		printJSON(record)
	case *list:
		records, err := audits.ListAudits(ctx, *listDomain)
		if err != nil {
			logger.Error("failed to list audits", "error", err)
			os.Exit(1)
		}
		printJSON(records)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// buildSources assembles the audit fan-out: the SEO sources always, the
// bearer-token sources only when configured.
func buildSources(cfg *config.Config, logger *slog.Logger) []service.AuditSource {
	var sources []service.AuditSource

	seoClient := seo.NewClient(seo.Config{
		BaseURL:  cfg.SEO.BaseURL,
		Login:    cfg.SEO.Login,
		Password: cfg.SEO.Password,
		Timeout:  cfg.SEO.Timeout,
		Location: cfg.SEO.Location,
		Language: cfg.SEO.Language,
	}, logger)
	for _, s := range seo.Sources(seoClient) {
		sources = append(sources, s)
	}

	if cfg.Analytics.BaseURL != "" {
		sources = append(sources, analytics.New(analytics.Config{
			BaseURL: cfg.Analytics.BaseURL,
			Token:   cfg.Analytics.Token,
			Timeout: cfg.Analytics.Timeout,
		}, logger))
	}
	if cfg.SearchConsole.BaseURL != "" {
		sources = append(sources, searchconsole.New(searchconsole.Config{
			BaseURL: cfg.SearchConsole.BaseURL,
			Token:   cfg.SearchConsole.Token,
			Timeout: cfg.SearchConsole.Timeout,
		}, logger))
	}

	return sources
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
