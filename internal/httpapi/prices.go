package httpapi

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
)

// PriceProxy forwards necessities-price lookups to the government open data API unmodified.
type PriceProxy struct {
	endpoint string
	client   *http.Client
}

// NewPriceProxy returns nil when no endpoint is configured.
func NewPriceProxy(endpoint string, timeout time.Duration) *PriceProxy {
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PriceProxy{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

// Forward relays the upstream status, content type and body.
func (p *PriceProxy) Forward(c *gin.Context, category, commodity string) {
	target, err := url.Parse(p.endpoint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid price endpoint"})
		return
	}
	q := target.Query()
	if category != "" {
		q.Set("CategoryName", category)
	}
	if commodity != "" {
		q.Set("Name", commodity)
	}
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build upstream request"})
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "price service unavailable"})
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Status(resp.StatusCode)
	c.Header("Content-Type", contentType)
	_, _ = io.Copy(c.Writer, resp.Body)
}
