package parser

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
)

// Tags whose subtrees carry no knowledge-base content.
var skippedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"nav":      {},
	"header":   {},
	"footer":   {},
}

// Tags that start a new structural section when seen as a direct child
// of the content container. Inline runs between them form implicit
// sections of their own.
var sectionTags = map[string]struct{}{
	"div":        {},
	"section":    {},
	"article":    {},
	"table":      {},
	"ul":         {},
	"ol":         {},
	"blockquote": {},
	"figure":     {},
}

// parseHTML partitions the document into structural sections and chunks
// each section's visible text. Every media element inside a section is
// attached to every chunk derived from that section: recall is preferred
// over precision when relating screenshots to text.
func (p *Parser) parseHTML(path, sourceDoc string) ([]model.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptDocument, err)
	}
	defer f.Close()
	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptDocument, err)
	}

	container := findMainContent(doc)
	sections := splitSections(container)

	var chunks []model.Chunk
	index := 1
	for _, section := range sections {
		text := collectText(section)
		if text == "" {
			continue
		}
		images, videos := p.collectMedia(section)
		texts, err := ChunkText(text, p.chunkSize, p.chunkOverlap)
		if err != nil {
			return nil, err
		}
		for _, t := range texts {
			chunks = append(chunks, model.Chunk{
				Text:      t,
				Source:    chunkSource(sourceDoc, index),
				SourceDoc: sourceDoc,
				ImageRefs: images,
				VideoRefs: videos,
			})
			index++
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyDocument, sourceDoc)
	}
	return chunks, nil
}

// findMainContent prefers an explicit main-content area over the body,
// matching how knowledge-base exports mark their payload.
func findMainContent(doc *html.Node) *html.Node {
	if n := findNode(doc, func(n *html.Node) bool { return attrValue(n, "id") == "main-content" }); n != nil {
		return n
	}
	if n := findNode(doc, func(n *html.Node) bool { return n.Data == "main" }); n != nil {
		return n
	}
	if n := findNode(doc, func(n *html.Node) bool { return n.Data == "body" }); n != nil {
		return n
	}
	return doc
}

func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findNode(child, pred); found != nil {
			return found
		}
	}
	return nil
}

// splitSections groups the container's direct children: each container
// block becomes its own section, and consecutive loose children (text,
// paragraphs, headings, media) accumulate into implicit sections.
func splitSections(container *html.Node) [][]*html.Node {
	var sections [][]*html.Node
	var loose []*html.Node
	flush := func() {
		if len(loose) > 0 {
			sections = append(sections, loose)
			loose = nil
		}
	}
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			if _, ok := skippedTags[child.Data]; ok {
				continue
			}
			if _, ok := sectionTags[child.Data]; ok {
				flush()
				sections = append(sections, []*html.Node{child})
				continue
			}
		}
		loose = append(loose, child)
	}
	flush()
	return sections
}

func collectText(nodes []*html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := skippedTags[n.Data]; ok {
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return normalizeWhitespace(sb.String())
}

func (p *Parser) collectMedia(nodes []*html.Node) ([]model.MediaRef, []model.MediaRef) {
	var images, videos []model.MediaRef
	seen := make(map[string]struct{})
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, ok := skippedTags[n.Data]; ok {
				return
			}
			switch n.Data {
			case "img":
				if ref, ok := p.imageRef(n); ok {
					if _, dup := seen[ref.URL]; !dup {
						seen[ref.URL] = struct{}{}
						images = append(images, ref)
					}
				}
			case "iframe":
				if embed, ok := normalizeVideoURL(attrValue(n, "src")); ok {
					if _, dup := seen[embed]; !dup {
						seen[embed] = struct{}{}
						videos = append(videos, model.MediaRef{URL: embed, Kind: model.MediaKindVideo, Origin: model.MediaOriginExternal})
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return images, videos
}

// imageRef filters decorative icons and rewrites relative sources into
// the local media namespace.
func (p *Parser) imageRef(n *html.Node) (model.MediaRef, bool) {
	src := strings.TrimSpace(attrValue(n, "src"))
	if src == "" || strings.HasPrefix(src, "data:") {
		return model.MediaRef{}, false
	}
	width, werr := strconv.Atoi(attrValue(n, "width"))
	height, herr := strconv.Atoi(attrValue(n, "height"))
	if werr == nil && herr == nil {
		if width*height < p.minImageArea {
			return model.MediaRef{}, false
		}
	} else if looksDecorative(src) {
		return model.MediaRef{}, false
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "/") {
		return model.MediaRefFromURL(src, model.MediaKindImage), true
	}
	local := model.MediaURLPrefix + strings.TrimPrefix(src, "./")
	return model.MediaRef{URL: local, Kind: model.MediaKindImage, Origin: model.MediaOriginLocal}, true
}

func looksDecorative(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range []string{"bullet", "icon", "spacer", "transparent", "1x1"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalizeVideoURL converts iframe sources on known video hosts into
// their embeddable form. Anything unparseable is silently dropped; a
// broken video reference never fails the parse.
func normalizeVideoURL(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	switch {
	case strings.Contains(src, "youtube.com/watch"):
		parsed, err := url.Parse(src)
		if err != nil {
			return "", false
		}
		id := parsed.Query().Get("v")
		if id == "" {
			return "", false
		}
		return "https://www.youtube.com/embed/" + id, true
	case strings.Contains(src, "youtu.be/"):
		rest := src[strings.Index(src, "youtu.be/")+len("youtu.be/"):]
		id := strings.SplitN(rest, "?", 2)[0]
		id = strings.Trim(id, "/")
		if id == "" {
			return "", false
		}
		return "https://www.youtube.com/embed/" + id, true
	case strings.Contains(src, "youtube.com/embed/"), strings.Contains(src, "vimeo.com"):
		return src, true
	default:
		return "", false
	}
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
