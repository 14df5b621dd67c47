package contentful_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/vendsite/contentful"
	"github.com/eringen/vendsite/metrics"
)

const productPage = `{
  "sys": {"type": "Array"},
  "total": 1, "skip": 0, "limit": 100,
  "items": [{
    "sys": {"id": "p1", "type": "Entry", "contentType": {"sys": {"id": "product", "type": "Link", "linkType": "ContentType"}},
            "createdAt": "2024-03-01T10:00:00Z", "updatedAt": "2024-03-02T10:00:00Z"},
    "fields": {
      "title": "Smart Cooler",
      "slug": "smart-cooler",
      "price": "1299.5",
      "visible": false,
      "tags": "solo",
      "specs": {"voltage": "220V", "shelves": 5, "wifi": true},
      "mainImage": {"sys": {"type": "Link", "linkType": "Asset", "id": "a1"}},
      "features": [{"sys": {"type": "Link", "linkType": "Entry", "id": "f1"}}, {"broken": true}]
    }
  }],
  "includes": {
    "Entry": [{"sys": {"id": "f1", "type": "Entry"}, "fields": {"title": "Cashless"}}],
    "Asset": [{"sys": {"id": "a1", "type": "Asset"}, "fields": {"title": "Cooler", "file": {"url": "//images.ctfassets.net/x/cooler.png", "details": {"image": {"width": 640, "height": 480}}}}}]
  }
}`

func newClient(t *testing.T, srv *httptest.Server, opts ...contentful.Option) *contentful.Client {
	t.Helper()
	c, err := contentful.New(contentful.Config{
		SpaceID:     "space1",
		AccessToken: "token1",
		BaseURL:     srv.URL,
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestEntriesDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spaces/space1/environments/master/entries", r.URL.Path)
		assert.Equal(t, "Bearer token1", r.Header.Get("Authorization"))
		assert.Equal(t, "product", r.URL.Query().Get("content_type"))
		assert.Equal(t, "smart-cooler", r.URL.Query().Get("fields.slug"))
		assert.Equal(t, "2", r.URL.Query().Get("include"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	c := newClient(t, srv)
	coll, err := c.Entries(context.Background(), contentful.Query{
		ContentType: "product",
		Fields:      map[string]string{"slug": "smart-cooler"},
	})
	require.NoError(t, err)
	require.Len(t, coll.Items, 1)

	e := coll.Items[0]
	assert.Equal(t, "p1", e.Sys.ID)
	assert.Equal(t, "product", e.ContentTypeID())
	assert.Equal(t, "Smart Cooler", e.String("title"))
	assert.Equal(t, 1299.5, e.Float("price"))
	assert.False(t, e.Bool("visible", true))
	assert.True(t, e.Bool("missing", true))
	assert.Equal(t, []string{"solo"}, e.Strings("tags"))
	assert.Equal(t, map[string]string{"voltage": "220V", "shelves": "5", "wifi": "true"}, e.StringMap("specs"))
	assert.Equal(t, "", e.String("visible"), "non-string field reads as empty")

	link, ok := e.Link("mainImage")
	require.True(t, ok)
	asset, ok := coll.ResolveAsset(link)
	require.True(t, ok)
	assert.Equal(t, "https://images.ctfassets.net/x/cooler.png", asset.URL())
	assert.Equal(t, 640, asset.Fields.File.Details.Image.Width)

	links := e.Links("features")
	require.Len(t, links, 1)
	feature, ok := coll.ResolveEntry(links[0])
	require.True(t, ok)
	assert.Equal(t, "Cashless", feature.String("title"))
}

func TestAllEntriesPaginates(t *testing.T) {
	const total = 5
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var items string
		for i := skip; i < skip+limit && i < total; i++ {
			if items != "" {
				items += ","
			}
			items += fmt.Sprintf(`{"sys":{"id":"e%d"},"fields":{"title":"Entry %d"}}`, i, i)
		}
		fmt.Fprintf(w, `{"total":%d,"skip":%d,"limit":%d,"items":[%s]}`, total, skip, limit, items)
	}))
	defer srv.Close()

	c := newClient(t, srv)
	coll, err := c.AllEntries(context.Background(), contentful.Query{ContentType: "blogPost", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, coll.Items, total)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Entry 4", coll.Items[4].String("title"))

	e, ok := coll.ResolveEntry(contentful.NewLink("Entry", "e3"))
	assert.True(t, ok)
	assert.Equal(t, "e3", e.Sys.ID)
}

func TestEntryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "missing", r.URL.Query().Get("sys.id"))
		_, _ = w.Write([]byte(`{"total":0,"items":[]}`))
	}))
	defer srv.Close()

	_, _, err := newClient(t, srv).Entry(context.Background(), "machine", "missing")
	assert.ErrorIs(t, err, contentful.ErrNotFound)
}

func TestAPIErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"sys":{"type":"Error","id":"AccessTokenInvalid"},"message":"The access token you sent could not be found or is invalid.","requestId":"req-1"}`))
	}))
	defer srv.Close()

	m := metrics.New()
	c := newClient(t, srv, contentful.WithMetrics(m.CMSRequests, m.CMSDuration))
	_, err := c.Entries(context.Background(), contentful.Query{ContentType: "product"})

	var apiErr *contentful.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "AccessTokenInvalid", apiErr.ID)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.NotErrorIs(t, err, contentful.ErrNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CMSRequests.WithLabelValues("product", "401")))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := contentful.New(contentful.Config{AccessToken: "t"})
	assert.Error(t, err)

	_, err = contentful.New(contentful.Config{SpaceID: "s", AccessToken: "t", Preview: true})
	assert.Error(t, err, "preview mode needs the preview token")

	_, err = contentful.New(contentful.Config{SpaceID: "s", PreviewToken: "p", Preview: true})
	assert.NoError(t, err)
}
