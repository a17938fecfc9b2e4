package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/scanner"
)

const (
	udnScannerName = "udn"

	titleSelector   = "h1.article-content__title"
	timeSelector    = "time.article-content__time"
	contentSelector = "section.article-content__editor"
)

// UDNSource searches the udn.com listing API and parses its article pages.
type UDNSource struct {
	name       string
	listingURL string
	channelID  int
	allowed    []string
	userAgent  string
	noise      NoiseFilter
	client     *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ scanner.Source = (*UDNSource)(nil)

// NewUDNSource wires an HTTP client for the configured site; a nil client gets the site timeout.
func NewUDNSource(site config.SiteConfig, client *http.Client, log *slog.Logger) *UDNSource {
	if client == nil {
		timeout := site.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if site.RatePerSecond > 0 {
		limit = rate.Limit(site.RatePerSecond)
	}

	allowed := make([]string, 0, len(site.AllowedDomains))
	for _, d := range site.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			allowed = append(allowed, d)
		}
	}
	if len(allowed) == 0 {
		if u, err := url.Parse(site.ListingURL); err == nil && u.Hostname() != "" {
			allowed = append(allowed, strings.ToLower(u.Hostname()))
		}
	}

	name := site.Name
	if name == "" {
		name = udnScannerName
	}

	return &UDNSource{
		name:       name,
		listingURL: site.ListingURL,
		channelID:  site.ChannelID,
		allowed:    allowed,
		userAgent:  site.UserAgent,
		noise:      NewNoiseFilter(site.NoiseGlyphs),
		client:     client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     log,
	}
}

// Name identifies the site inside the registry.
func (s *UDNSource) Name() string {
	return s.name
}

// Headlines requests every requested page in ascending order and concatenates the results.
// A failing page is skipped: the headlines of the other pages are returned together with
// the joined page errors.
func (s *UDNSource) Headlines(ctx context.Context, term string, pages domain.PageSpec) ([]domain.Headline, error) {
	numbers := pages.Pages()
	if len(numbers) == 0 {
		return nil, fmt.Errorf("invalid page spec %d-%d", pages.From, pages.To)
	}

	var (
		results []domain.Headline
		errs    []error
	)
	for _, page := range numbers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		headlines, err := s.Page(ctx, term, page)
		if err != nil {
			s.debug("listing page failed", "site", s.name, "page", page, "term", term, "error", err)
			errs = append(errs, fmt.Errorf("page %d: %w", page, err))
			continue
		}
		s.debug("listing page fetched", "site", s.name, "page", page, "count", len(headlines))
		results = append(results, headlines...)
	}

	return results, errors.Join(errs...)
}

// Page issues exactly one listing request.
func (s *UDNSource) Page(ctx context.Context, term string, page int) ([]domain.Headline, error) {
	pageURL, err := buildListingURL(s.listingURL, term, page, s.channelID)
	if err != nil {
		return nil, err
	}

	resp, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{URL: pageURL, Err: fmt.Errorf("read listing: %w", err)}
	}

	return parseListing(pageURL, raw)
}

// Article downloads and parses one article page.
func (s *UDNSource) Article(ctx context.Context, articleURL string) (domain.ArticleBody, error) {
	if err := s.checkDomain(articleURL); err != nil {
		return domain.ArticleBody{}, err
	}

	doc, err := s.fetchDocument(ctx, articleURL)
	if err != nil {
		return domain.ArticleBody{}, err
	}

	return extractArticle(doc, articleURL, s.noise)
}

func (s *UDNSource) checkDomain(articleURL string) error {
	u, err := url.Parse(articleURL)
	if err != nil || u.Hostname() == "" {
		return &domain.DomainMismatchError{URL: articleURL, Site: s.name}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &domain.DomainMismatchError{URL: articleURL, Host: u.Hostname(), Site: s.name}
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range s.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return &domain.DomainMismatchError{URL: articleURL, Host: host, Site: s.name}
}

func (s *UDNSource) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Element: "charset", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Element: "document", Err: err}
	}

	return doc, nil
}

func (s *UDNSource) get(ctx context.Context, target string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &domain.NetworkError{URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{URL: target, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &domain.NetworkError{URL: target, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	return resp, nil
}

func (s *UDNSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

type listingResponse struct {
	Lists *[]listingItem `json:"lists"`
}

type listingItem struct {
	Title     string          `json:"title"`
	TitleLink string          `json:"titleLink"`
	Time      json.RawMessage `json:"time"`
}

func parseListing(pageURL string, raw []byte) ([]domain.Headline, error) {
	var payload listingResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &domain.ParseError{URL: pageURL, Element: "listing json", Err: err}
	}
	if payload.Lists == nil {
		return nil, nil
	}

	base, _ := url.Parse(pageURL)
	headlines := make([]domain.Headline, 0, len(*payload.Lists))
	for _, item := range *payload.Lists {
		link := strings.TrimSpace(item.TitleLink)
		title := strings.TrimSpace(item.Title)
		if link == "" || title == "" {
			continue
		}
		if ref, err := url.Parse(link); err == nil && base != nil && !ref.IsAbs() {
			link = base.ResolveReference(ref).String()
		}
		headlines = append(headlines, domain.Headline{
			Title: title,
			URL:   link,
			Time:  listingTime(item.Time),
		})
	}

	return headlines, nil
}

// listingTime accepts either a plain string or an object carrying a "date" field.
func listingTime(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Date string `json:"date"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Date)
	}
	return ""
}

func extractArticle(doc *goquery.Document, articleURL string, noise NoiseFilter) (domain.ArticleBody, error) {
	titleSel := doc.Find(titleSelector).First()
	if titleSel.Length() == 0 {
		return domain.ArticleBody{}, &domain.ParseError{URL: articleURL, Element: titleSelector}
	}

	timeSel := doc.Find(timeSelector).First()
	if timeSel.Length() == 0 {
		return domain.ArticleBody{}, &domain.ParseError{URL: articleURL, Element: timeSelector}
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return domain.ArticleBody{}, &domain.ParseError{URL: articleURL, Element: contentSelector}
	}

	var raw []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		raw = append(raw, p.Text())
	})

	return domain.ArticleBody{
		URL:        articleURL,
		Title:      strings.TrimSpace(titleSel.Text()),
		Time:       strings.TrimSpace(timeSel.Text()),
		Paragraphs: noise.Clean(raw),
	}, nil
}

func buildListingURL(base, term string, page, channelID int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("id", "search:"+url.PathEscape(term))
	query.Set("channelId", strconv.Itoa(channelID))
	query.Set("type", "searchword")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
