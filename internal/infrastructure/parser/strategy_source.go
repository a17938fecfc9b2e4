package parser

import (
	"fmt"
	"log/slog"
	"net/http"

	"PriceTracker/internal/config"
	"PriceTracker/internal/scanner"
)

// strategies maps a scanner name from config to its constructor.
var strategies = map[string]func(config.SiteConfig, *http.Client, *slog.Logger) scanner.Source{
	udnScannerName: func(site config.SiteConfig, client *http.Client, log *slog.Logger) scanner.Source {
		return NewUDNSource(site, client, log)
	},
}

// NewStrategyRegistry builds one source per configured site using the site's scanner strategy.
func NewStrategyRegistry(sites []config.SiteConfig, client *http.Client, log *slog.Logger) (*scanner.Registry, error) {
	reg := scanner.NewRegistry()
	for _, site := range sites {
		build, ok := strategies[site.Scanner]
		if !ok {
			return nil, fmt.Errorf("site %s: unknown scanner %q", site.Name, site.Scanner)
		}

		var siteLog *slog.Logger
		if log != nil {
			siteLog = log.With("site", site.Name)
			siteLog.Debug("register site", "scanner", site.Scanner, "listing", site.ListingURL)
		}
		reg.Register(build(site, client, siteLog))
	}
	return reg, nil
}
