// Package feedgen renders filtered feeds as RSS 2.0 documents.
package feedgen

import (
	"encoding/xml"
	"fmt"
	"time"

	"podfilter/internal/model"
)

// pubDateLayout is RFC 822 with a four-digit year, always +0000.
const pubDateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	Title       string    `xml:"title"`
	Description string    `xml:"description"`
	Link        string    `xml:"link"`
	Items       []itemXML `xml:"item"`
}

// Optional item fields use omitempty so absent values produce absent
// elements, never empty ones. Downstream consumers vary in how they
// treat empty tags.
type itemXML struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description,omitempty"`
	Link        string        `xml:"link,omitempty"`
	GUID        string        `xml:"guid,omitempty"`
	Enclosure   *enclosureXML `xml:"enclosure,omitempty"`
	PubDate     string        `xml:"pubDate,omitempty"`
}

type enclosureXML struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// GenerateRSS renders meta and episodes as an RSS 2.0 document. The
// channel link falls back to baseURL when meta carries none. Inputs are
// not mutated.
func GenerateRSS(meta model.FeedMeta, episodes []model.Episode, baseURL string) (string, error) {
	link := meta.Link
	if link == "" {
		link = baseURL
	}

	items := make([]itemXML, 0, len(episodes))
	for _, ep := range episodes {
		items = append(items, renderItem(ep))
	}

	doc := rssXML{
		Version: "2.0",
		Channel: channelXML{
			Title:       meta.Title,
			Description: meta.Description,
			Link:        link,
			Items:       items,
		},
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal rss: %w", err)
	}
	return xml.Header + string(out), nil
}

func renderItem(ep model.Episode) itemXML {
	item := itemXML{
		Title:       ep.Title,
		Description: ep.Description,
		Link:        ep.Link,
		GUID:        ep.GUID,
	}
	if item.Title == "" {
		item.Title = "Untitled Episode"
	}

	if ep.EnclosureURL != "" {
		encType := ep.EnclosureType
		if encType == "" {
			encType = "audio/mpeg"
		}
		item.Enclosure = &enclosureXML{URL: ep.EnclosureURL, Type: encType}
	}

	if ep.PublishedAt != nil {
		item.PubDate = ep.PublishedAt.In(time.UTC).Format(pubDateLayout)
	}
	return item
}
