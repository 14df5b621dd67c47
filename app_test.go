package vendsite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/logging"
)

const (
	testPassword      = "correct horse"
	testWebhookSecret = "hook-secret"
)

// fakeSpace serves a minimal delivery API holding a few entries per
// content type.
type fakeSpace struct {
	entries map[string][]string
	hits    atomic.Int64
}

func newFakeSpace() *fakeSpace {
	entry := func(id, fields string) string {
		return fmt.Sprintf(`{"sys": {"id": %q, "type": "Entry", "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-02-01T00:00:00Z"}, "fields": %s}`, id, fields)
	}
	return &fakeSpace{entries: map[string][]string{
		content.TypeProduct: {
			entry("p1", `{"title": "Smart Cooler", "slug": "smart-cooler", "description": "Chilled snacks", "order": 1}`),
			entry("p2", `{"title": "Secret Prototype", "slug": "secret-prototype", "visible": false}`),
		},
		content.TypeMachine: {
			entry("m1", `{"title": "Combo Unit", "slug": "combo-unit", "type": "combo"}`),
			entry("m2", `{"title": "Snack Tower", "slug": "Snack Tower XL", "description": "Twelve spiral rows"}`),
		},
		content.TypeTechnology: {
			entry("t1", `{"title": "Touchless Payments", "description": "NFC and QR checkout"}`),
		},
		content.TypeBusinessGoal: {
			entry("g1", `{"title": "Reduce Waste", "description": "Stock to demand"}`),
		},
		content.TypeBlogPost: {
			entry("b1", `{"title": "Cashless Vending", "slug": "cashless-vending", "excerpt": "Tap to pay", "publishedDate": "2024-01-15"}`),
			entry("b2", `{"title": "From The Future", "slug": "from-the-future", "publishedDate": "2999-01-01"}`),
			entry("b3", `{"title": "Route Planning Tips", "excerpt": "Fewer trips", "publishedDate": "2024-03-01"}`),
		},
	}}
}

func (f *fakeSpace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	q := r.URL.Query()
	var items []string
	for _, raw := range f.entries[q.Get("content_type")] {
		var e contentful.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if slug := q.Get("fields.slug"); slug != "" && e.String("slug") != slug {
			continue
		}
		if id := q.Get("sys.id"); id != "" && e.Sys.ID != id {
			continue
		}
		items = append(items, raw)
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"sys": {"type": "Array"}, "total": %d, "skip": 0, "limit": 100, "items": [%s]}`,
		len(items), strings.Join(items, ","))
}

type testSite struct {
	app    *App
	space  *fakeSpace
	server *httptest.Server
	client *http.Client
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	space := newFakeSpace()
	cms := httptest.NewServer(space)
	t.Cleanup(cms.Close)

	dir := t.TempDir()
	cfg := Config{
		URL:           "https://vending.example.com",
		DatabasePath:  filepath.Join(dir, "site.db"),
		StaticDir:     filepath.Join(dir, "public"),
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
		WebhookSecret: testWebhookSecret,
		Contentful: contentful.Config{
			SpaceID:     "space1",
			AccessToken: "token1",
			BaseURL:     cms.URL,
		},
	}
	app := New(cfg, DefaultViews(), WithLogger(logging.Nop()))
	require.NoError(t, app.Init())
	t.Cleanup(func() { app.Close() })

	srv := httptest.NewServer(app.Echo)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testSite{app: app, space: space, server: srv, client: client}
}

func (s *testSite) do(t *testing.T, method, path string, body io.Reader, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, s.server.URL+path, body)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (s *testSite) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	return s.do(t, http.MethodGet, path, nil, nil)
}

// csrf returns the token issued to the client, fetching a page first when
// no cookie has been set yet.
func (s *testSite) csrf(t *testing.T) string {
	t.Helper()
	u, _ := url.Parse(s.server.URL)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			return c.Value
		}
	}
	s.get(t, "/admin/")
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			return c.Value
		}
	}
	t.Fatal("no csrf cookie issued")
	return ""
}

func (s *testSite) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	form.Set("_csrf", s.csrf(t))
	return s.do(t, http.MethodPost, path, strings.NewReader(form.Encode()), http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
	})
}

func (s *testSite) login(t *testing.T) {
	t.Helper()
	resp, _ := s.postForm(t, "/admin/login/", url.Values{"password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestPublicPages(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Smart Cooler")
	assert.NotContains(t, body, "Secret Prototype")

	resp, body = s.get(t, "/products/smart-cooler/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Chilled snacks")

	resp, _ = s.get(t, "/products/secret-prototype/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.get(t, "/products/missing/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.get(t, "/blog/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Cashless Vending")
	assert.NotContains(t, body, "From The Future")

	resp, _ = s.get(t, "/blog")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/blog/", resp.Header.Get("Location"))
}

func TestDetailPagesResolveListedSlugs(t *testing.T) {
	s := newTestSite(t)

	for _, tc := range []struct {
		list, detail, want string
	}{
		{"/products/", "/products/smart-cooler/", "Chilled snacks"},
		{"/machines/", "/machines/combo-unit/", "Combo Unit"},
		{"/machines/", "/machines/snack-tower-xl/", "Twelve spiral rows"},
		{"/technology/", "/technology/touchless-payments/", "NFC and QR checkout"},
		{"/business-goals/", "/business-goals/reduce-waste/", "Stock to demand"},
		{"/blog/", "/blog/cashless-vending/", "Cashless Vending"},
		{"/blog/", "/blog/route-planning-tips/", "Route Planning Tips"},
	} {
		resp, body := s.get(t, tc.list)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.list)
		assert.Contains(t, body, `href="`+tc.detail+`"`, tc.list)

		resp, body = s.get(t, tc.detail)
		require.Equal(t, http.StatusOK, resp.StatusCode, tc.detail)
		assert.Contains(t, body, tc.want, tc.detail)
	}

	resp, _ := s.get(t, "/blog/from-the-future/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.get(t, "/technology/missing/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeedAndSitemap(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/feed.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, body, "<title>Cashless Vending</title>")
	assert.Contains(t, body, "<description>Tap to pay</description>")
	assert.NotContains(t, body, "From The Future")

	resp, body = s.get(t, "/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<loc>https://vending.example.com/products/smart-cooler/</loc>")
	assert.Contains(t, body, "<loc>https://vending.example.com/machines/combo-unit/</loc>")
	assert.Contains(t, body, "<lastmod>2024-02-01</lastmod>")
	assert.NotContains(t, body, "secret-prototype")

	resp, body = s.get(t, "/robots.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sitemap: https://vending.example.com/sitemap.xml")
}

func TestAPIServesVisibleContent(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/api/content/product")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var products []content.Product
	require.NoError(t, json.Unmarshal([]byte(body), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "smart-cooler", products[0].Slug)

	resp, _ = s.get(t, "/api/content/product/smart-cooler")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.get(t, "/api/content/product/secret-prototype")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error": "not found"}`, body)

	resp, _ = s.get(t, "/api/content/coupon")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRequiresLogin(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/admin/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password"`)

	resp, _ = s.get(t, "/admin/export/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/", resp.Header.Get("Location"))

	resp, _ = s.postForm(t, "/admin/login/", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminWritesAreGone(t *testing.T) {
	s := newTestSite(t)
	s.login(t)
	before := s.space.hits.Load()

	header := http.Header{
		"X-Csrf-Token": {s.csrf(t)},
		"Content-Type": {"application/json"},
	}
	cases := []struct {
		method, path, op string
	}{
		{http.MethodPost, "/admin/content/product/", "create"},
		{http.MethodPut, "/admin/content/product/p1/", "update"},
		{http.MethodDelete, "/admin/content/machine/m1/", "delete"},
		{http.MethodPost, "/admin/content/blogPost/b1/clone/", "clone"},
	}
	for _, tc := range cases {
		t.Run(tc.op, func(t *testing.T) {
			resp, body := s.do(t, tc.method, tc.path, strings.NewReader(`{"title": "New"}`), header)
			require.Equal(t, http.StatusGone, resp.StatusCode)
			var got map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			assert.Equal(t, tc.op, got["operation"])
			assert.Contains(t, got["error"], "no longer supported")
		})
	}
	assert.Equal(t, before, s.space.hits.Load())

	assert.True(t, s.app.Tracker.Reported(content.TypeProduct, "create"))
	assert.True(t, s.app.Tracker.Reported(content.TypeMachine, "delete"))

	resp, _ := s.do(t, http.MethodPost, "/admin/content/coupon/", strings.NewReader(`{}`), header)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminDashboardAndMigration(t *testing.T) {
	s := newTestSite(t)
	s.login(t)

	resp, body := s.get(t, "/admin/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/admin/migration/product/")

	resp, _ = s.postForm(t, "/admin/migration/product/", url.Values{"status": {"migrated"}, "note": {"done"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/admin/?msg="))

	status, err := s.app.Store.MigrationStatus(context.Background(), content.TypeProduct)
	require.NoError(t, err)
	assert.Equal(t, content.StatusMigrated, status)

	resp, _ = s.postForm(t, "/admin/migration/coupon/", url.Values{"status": {"migrated"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.get(t, "/admin/content/product/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Secret Prototype")

	resp, body = s.get(t, "/admin/export/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	var bundle content.Bundle
	require.NoError(t, json.Unmarshal([]byte(body), &bundle))
	assert.Len(t, bundle.Products, 2)
	assert.Equal(t, content.SourceCMS, bundle.Sources[content.TypeProduct])
}

func TestContactForm(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/contact/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/contact/"`)

	resp, body = s.postForm(t, "/contact/", url.Values{"name": {"Ana"}, "email": {"not-an-email"}, "message": {"Hi"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "valid email")

	resp, body = s.postForm(t, "/contact/", url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "message": {"Need a quote"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "we received your message")

	msgs, err := s.app.Store.ListContactMessages(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ana@example.com", msgs[0].Email)
}

func TestWebhookFlushesCache(t *testing.T) {
	s := newTestSite(t)

	s.get(t, "/api/content/product")
	hits := s.space.hits.Load()
	s.get(t, "/api/content/product")
	assert.Equal(t, hits, s.space.hits.Load(), "second read is cached")

	resp, _ := s.do(t, http.MethodPost, "/api/webhooks/contentful", nil, http.Header{"X-Webhook-Secret": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(t, http.MethodPost, "/api/webhooks/contentful", nil, http.Header{"X-Webhook-Secret": {testWebhookSecret}})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"flushed": true}`, body)

	s.get(t, "/api/content/product")
	assert.Greater(t, s.space.hits.Load(), hits)
}

func TestHealthz(t *testing.T) {
	s := newTestSite(t)

	resp, body := s.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Status  string            `json:"status"`
		Sources map[string]string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "cms", got.Sources[content.TypeProduct])

	resp, body = s.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "vendsite_contact_messages_total")
}
