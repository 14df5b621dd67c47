package contentful

import (
	"encoding/json"
	"strings"
	"time"
)

// Sys is the system metadata block of every CMS object.
type Sys struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	LinkType    string    `json:"linkType,omitempty"`
	ContentType *Link     `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Locale      string    `json:"locale,omitempty"`
	Revision    int       `json:"revision,omitempty"`
}

// Link points at another entry or asset.
type Link struct {
	Sys struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		LinkType string `json:"linkType"`
	} `json:"sys"`
}

// NewLink builds a link of the given type ("Entry" or "Asset").
func NewLink(linkType, id string) Link {
	var l Link
	l.Sys.ID = id
	l.Sys.Type = "Link"
	l.Sys.LinkType = linkType
	return l
}

// Entry is a content entry: sys metadata plus raw fields.
type Entry struct {
	Sys    Sys                        `json:"sys"`
	Fields map[string]json.RawMessage `json:"fields"`
}

// ContentTypeID returns the id of the entry's content type.
func (e Entry) ContentTypeID() string {
	if e.Sys.ContentType == nil {
		return ""
	}
	return e.Sys.ContentType.Sys.ID
}

// Asset is a media asset.
type Asset struct {
	Sys    Sys `json:"sys"`
	Fields struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		File        struct {
			URL         string `json:"url"`
			FileName    string `json:"fileName"`
			ContentType string `json:"contentType"`
			Details     struct {
				Size  int64 `json:"size"`
				Image struct {
					Width  int `json:"width"`
					Height int `json:"height"`
				} `json:"image"`
			} `json:"details"`
		} `json:"file"`
	} `json:"fields"`
}

// URL returns the asset file URL with an https scheme.
func (a Asset) URL() string {
	return AbsoluteURL(a.Fields.File.URL)
}

// AbsoluteURL adds https: to protocol-relative URLs.
func AbsoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// Includes carries the linked objects returned alongside a collection.
type Includes struct {
	Entry []Entry `json:"Entry"`
	Asset []Asset `json:"Asset"`
}

// Collection is one page of entries.
type Collection struct {
	Total    int      `json:"total"`
	Skip     int      `json:"skip"`
	Limit    int      `json:"limit"`
	Items    []Entry  `json:"items"`
	Includes Includes `json:"includes"`

	entries map[string]Entry
	assets  map[string]Asset
}

// UnmarshalJSON decodes a collection and indexes its includes.
func (c *Collection) UnmarshalJSON(b []byte) error {
	type plain Collection
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Collection(p)
	c.index()
	return nil
}

func (c *Collection) index() {
	c.entries = make(map[string]Entry, len(c.Items)+len(c.Includes.Entry))
	c.assets = make(map[string]Asset, len(c.Includes.Asset))
	for _, e := range c.Includes.Entry {
		c.entries[e.Sys.ID] = e
	}
	for _, e := range c.Items {
		c.entries[e.Sys.ID] = e
	}
	for _, a := range c.Includes.Asset {
		c.assets[a.Sys.ID] = a
	}
}

// merge appends another page into c.
func (c *Collection) merge(page *Collection) {
	c.Items = append(c.Items, page.Items...)
	c.Includes.Entry = append(c.Includes.Entry, page.Includes.Entry...)
	c.Includes.Asset = append(c.Includes.Asset, page.Includes.Asset...)
	c.Total = page.Total
	c.index()
}

// ResolveEntry returns the entry a link points at, if it was included.
func (c *Collection) ResolveEntry(l Link) (Entry, bool) {
	if c == nil || c.entries == nil {
		return Entry{}, false
	}
	e, ok := c.entries[l.Sys.ID]
	return e, ok
}

// ResolveAsset returns the asset a link points at, if it was included.
func (c *Collection) ResolveAsset(l Link) (Asset, bool) {
	if c == nil || c.assets == nil {
		return Asset{}, false
	}
	a, ok := c.assets[l.Sys.ID]
	return a, ok
}

// Resolver looks up linked objects. *Collection implements it.
type Resolver interface {
	ResolveEntry(l Link) (Entry, bool)
	ResolveAsset(l Link) (Asset, bool)
}

type emptyResolver struct{}

func (emptyResolver) ResolveEntry(Link) (Entry, bool) { return Entry{}, false }
func (emptyResolver) ResolveAsset(Link) (Asset, bool) { return Asset{}, false }

// NoIncludes is a Resolver that resolves nothing.
var NoIncludes Resolver = emptyResolver{}
