package model

import "strings"

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

type MediaOrigin string

const (
	// MediaOriginLocal points into the samples directory via /media/.
	MediaOriginLocal MediaOrigin = "local"
	// MediaOriginExtracted points into the extracted-media directory.
	MediaOriginExtracted MediaOrigin = "extracted"
	// MediaOriginExternal is an opaque absolute URL.
	MediaOriginExternal MediaOrigin = "external"
)

const (
	MediaURLPrefix          = "/media/"
	ExtractedMediaURLPrefix = "/media/extracted/"
)

type MediaRef struct {
	URL    string      `json:"url"`
	Kind   MediaKind   `json:"kind"`
	Origin MediaOrigin `json:"origin"`
}

// MediaRefFromURL classifies a raw URL into a MediaRef. Vector-store
// payloads carry plain URL lists; the origin is recoverable from the
// URL namespace alone.
func MediaRefFromURL(url string, kind MediaKind) MediaRef {
	origin := MediaOriginExternal
	switch {
	case strings.HasPrefix(url, ExtractedMediaURLPrefix):
		origin = MediaOriginExtracted
	case strings.HasPrefix(url, MediaURLPrefix):
		origin = MediaOriginLocal
	}
	return MediaRef{URL: url, Kind: kind, Origin: origin}
}

// PoolItem is a de-duplicated media reference plus the text of the chunk
// it was first seen on. The context drives step/image matching.
type PoolItem struct {
	Ref     MediaRef
	Context string
}

// MediaPool is an ordered, URL-de-duplicated media collection scoped to
// one answer.
type MediaPool struct {
	items []PoolItem
	seen  map[string]struct{}
}

func (p *MediaPool) Add(ref MediaRef, context string) {
	if ref.URL == "" {
		return
	}
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[ref.URL]; ok {
		return
	}
	p.seen[ref.URL] = struct{}{}
	p.items = append(p.items, PoolItem{Ref: ref, Context: context})
}

func (p *MediaPool) Items() []PoolItem {
	return p.items
}

func (p *MediaPool) Len() int {
	return len(p.items)
}

// URLsByKind returns pool URLs of one kind in first-seen order.
func (p *MediaPool) URLsByKind(kind MediaKind) []string {
	urls := make([]string, 0, len(p.items))
	for _, item := range p.items {
		if item.Ref.Kind == kind {
			urls = append(urls, item.Ref.URL)
		}
	}
	return urls
}
