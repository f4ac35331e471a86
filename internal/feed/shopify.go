// Package feed fetches paginated order data from the e-commerce API. It is
// a collaborator invoked before the core run: the pipeline only ever sees
// the already-fetched pages, never the network.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"time"

	"salesmerge/pkg/platform"
)

// orderFields keeps the payload small; this list must stay a superset of the
// registry's required keys for the shopify channel.
const orderFields = "id,created_at,total_price,financial_status,source_name,shipping_address,customer,line_items"

var nextPagePattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// ShopifyClient pulls order pages with cursor pagination.
type ShopifyClient struct {
	Domain     string // e.g. example.myshopify.com
	APIVersion string
	Token      string
	PageLimit  int // per-page order count, capped at 250 by the API
	MaxPages   int // safety bound; 0 means no bound

	http *platform.HTTPClient
}

// NewShopifyClient builds a client with sane retry defaults.
func NewShopifyClient(domain, apiVersion, token string) *ShopifyClient {
	return &ShopifyClient{
		Domain:     domain,
		APIVersion: apiVersion,
		Token:      token,
		PageLimit:  250,
		http:       platform.NewHTTPClient(3, 30*time.Second),
	}
}

// FetchOrderPages pulls all order pages, following the Link header cursor
// until the API reports no next page.
func (c *ShopifyClient) FetchOrderPages(ctx context.Context) ([][]byte, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("shopify token not configured")
	}
	return c.fetchFrom(ctx, c.ordersURL())
}

// fetchFrom walks the cursor chain starting at pageURL. Each next page is
// the verbatim URL the API hands back in the Link header.
func (c *ShopifyClient) fetchFrom(ctx context.Context, pageURL string) ([][]byte, error) {
	var pages [][]byte

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.MaxPages > 0 && len(pages) >= c.MaxPages {
			return nil, fmt.Errorf("feed exceeded %d pages, refusing to continue", c.MaxPages)
		}

		resp, err := c.http.GetJSON(pageURL, map[string]string{
			"X-Shopify-Access-Token": c.Token,
		})
		if err != nil {
			return nil, fmt.Errorf("shopify fetch failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("shopify response read failed: %w", readErr)
		}
		if resp.StatusCode != 200 {
			return nil, fmt.Errorf("shopify returned status %d: %s", resp.StatusCode, string(body))
		}

		pages = append(pages, body)

		pageURL = ""
		if m := nextPagePattern.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
			pageURL = m[1]
		}
	}
	return pages, nil
}

// ordersURL builds the first-page URL. Filter params only appear here; the
// API rejects them on cursor requests.
func (c *ShopifyClient) ordersURL() string {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", c.PageLimit))
	q.Set("status", "any")
	q.Set("fields", orderFields)
	return fmt.Sprintf("https://%s/admin/api/%s/orders.json?%s", c.Domain, c.APIVersion, q.Encode())
}
