package vendsite

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/vendsite/content"
	"github.com/eringen/vendsite/richtext"
)

const (
	feedItems         = 20
	feedSummaryLength = 280
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Catalog.BlogPosts.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, head(content.Visible(posts), feedItems))
}

func (a *App) renderRSS(c echo.Context, posts []content.BlogPost) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "blog", p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: postSummary(p),
			GUID:        postURL,
		}
		if !p.PublishedAt.IsZero() {
			item.PubDate = p.PublishedAt.Format(time.RFC1123Z)
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}

// postSummary prefers the excerpt and falls back to the start of the body.
func postSummary(p content.BlogPost) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	text := []rune(richtext.PlainText(p.Content))
	if len(text) > feedSummaryLength {
		return string(text[:feedSummaryLength]) + "…"
	}
	return string(text)
}
