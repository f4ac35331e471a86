package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) (*ShopifyClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewShopifyClient(strings.TrimPrefix(srv.URL, "http://"), "2024-04", "test-token")
	return c, srv
}

func TestFetchOrderPagesFollowsCursor(t *testing.T) {
	var gotTokens []string
	var gotQueries []string

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-04/orders.json", func(w http.ResponseWriter, r *http.Request) {
		gotTokens = append(gotTokens, r.Header.Get("X-Shopify-Access-Token"))
		gotQueries = append(gotQueries, r.URL.RawQuery)

		switch r.URL.Query().Get("page_info") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/admin/api/2024-04/orders.json?page_info=cursor-2&limit=250>; rel="next"`, r.Host))
			fmt.Fprint(w, `{"orders":[{"id":1}]}`)
		case "cursor-2":
			fmt.Fprint(w, `{"orders":[{"id":2}]}`)
		default:
			http.Error(w, "bad cursor", http.StatusBadRequest)
		}
	})

	// ordersURL builds https URLs from the shop domain, so drive fetchFrom
	// with the test server's http URL directly.
	c, srv := testClient(t, mux)
	pages, err := c.fetchFrom(context.Background(), srv.URL+"/admin/api/2024-04/orders.json?limit=250&status=any")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.JSONEq(t, `{"orders":[{"id":1}]}`, string(pages[0]))
	assert.JSONEq(t, `{"orders":[{"id":2}]}`, string(pages[1]))

	require.Len(t, gotTokens, 2)
	assert.Equal(t, "test-token", gotTokens[0])
	assert.Contains(t, gotQueries[1], "page_info=cursor-2")
	assert.NotContains(t, gotQueries[1], "fields=", "cursor requests must not repeat filter params")
}

func TestFetchOrderPagesRequiresToken(t *testing.T) {
	c := NewShopifyClient("example.myshopify.com", "2024-04", "")
	_, err := c.FetchOrderPages(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestFetchOrderPagesMaxPagesBound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-04/orders.json", func(w http.ResponseWriter, r *http.Request) {
		// Always report a next page: a runaway cursor.
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/admin/api/2024-04/orders.json?page_info=again>; rel="next"`, r.Host))
		fmt.Fprint(w, `{"orders":[]}`)
	})

	c, srv := testClient(t, mux)
	c.MaxPages = 3
	_, err := c.fetchFrom(context.Background(), srv.URL+"/admin/api/2024-04/orders.json?limit=250")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 pages")
}

func TestFetchOrderPagesServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/api/2024-04/orders.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shop not found", http.StatusNotFound)
	})

	c, srv := testClient(t, mux)
	_, err := c.fetchFrom(context.Background(), srv.URL+"/admin/api/2024-04/orders.json?limit=250")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOrdersURL(t *testing.T) {
	c := NewShopifyClient("example.myshopify.com", "2024-04", "tok")

	first := c.ordersURL()
	assert.Contains(t, first, "https://example.myshopify.com/admin/api/2024-04/orders.json?")
	assert.Contains(t, first, "status=any")
	assert.Contains(t, first, "limit=250")
	assert.Contains(t, first, "fields=")
}

func TestNextPagePattern(t *testing.T) {
	link := `<https://x.myshopify.com/admin/api/2024-04/orders.json?limit=250&page_info=abc123>; rel="next", <https://x.myshopify.com/prev>; rel="previous"`
	m := nextPagePattern.FindStringSubmatch(link)
	require.NotNil(t, m)
	assert.Equal(t, "https://x.myshopify.com/admin/api/2024-04/orders.json?limit=250&page_info=abc123", m[1])

	assert.Nil(t, nextPagePattern.FindStringSubmatch(`<https://x/prev>; rel="previous"`))
}
