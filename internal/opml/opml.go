// Package opml converts between subscription lists and OPML 2.0 documents.
package opml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"

	"golang.org/x/net/html/charset"

	"podfilter/internal/model"
)

// ErrInvalidOPML marks input that is not a well-formed OPML document.
// Callers can tell it apart from I/O failures with errors.Is.
var ErrInvalidOPML = errors.New("invalid OPML document")

const unknownFeed = "Unknown Feed"

type opmlXML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    headXML  `xml:"head"`
	Body    bodyXML  `xml:"body"`
}

type headXML struct {
	Title string `xml:"title"`
}

type bodyXML struct {
	Outlines []outlineXML `xml:"outline"`
}

type outlineXML struct {
	Text        string       `xml:"text,attr"`
	Title       string       `xml:"title,attr,omitempty"`
	Type        string       `xml:"type,attr,omitempty"`
	XMLURL      string       `xml:"xmlUrl,attr,omitempty"`
	Description string       `xml:"description,attr,omitempty"`
	Outlines    []outlineXML `xml:"outline"`
}

// Generate renders the feed list as a flat OPML 2.0 document.
func Generate(feeds []model.Subscription, title string) (string, error) {
	doc := opmlXML{
		Version: "2.0",
		Head:    headXML{Title: title},
	}

	for _, feed := range feeds {
		name := feed.Title
		if name == "" {
			name = unknownFeed
		}
		doc.Body.Outlines = append(doc.Body.Outlines, outlineXML{
			Text:        name,
			Title:       name,
			Type:        "rss",
			XMLURL:      feed.URL,
			Description: feed.Description,
		})
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal opml: %w", err)
	}
	return xml.Header + string(out), nil
}

// Parse extracts feed subscriptions from OPML content. Outlines are
// walked at any nesting depth; only those carrying a non-empty xmlUrl
// become entries, containers are transparent. Malformed or non-OPML
// input yields an error wrapping ErrInvalidOPML.
func Parse(content string) ([]model.Subscription, error) {
	// Decode from bytes so an encoding named in the XML declaration is
	// honored rather than assumed to be UTF-8.
	dec := xml.NewDecoder(bytes.NewReader([]byte(content)))
	dec.CharsetReader = charset.NewReaderLabel

	// The opml element name on XMLName makes Decode reject any other
	// root element, so "<not-opml>" fails here rather than parsing as
	// an empty document.
	var doc opmlXML
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOPML, err)
	}

	var feeds []model.Subscription
	collect(doc.Body.Outlines, &feeds)
	return feeds, nil
}

func collect(outlines []outlineXML, feeds *[]model.Subscription) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			title := o.Title
			if title == "" {
				title = o.Text
			}
			if title == "" {
				title = unknownFeed
			}
			*feeds = append(*feeds, model.Subscription{
				Title:       title,
				URL:         o.XMLURL,
				Description: o.Description,
			})
		}
		collect(o.Outlines, feeds)
	}
}
