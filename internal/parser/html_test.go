package parser_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/model"
	"github.com/answerdesk/answerdesk/internal/parser"
)

func newTestParser(t *testing.T, chunkSize, chunkOverlap int) *parser.Parser {
	t.Helper()
	return parser.New(config.ParserConfig{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		MinImageArea: 400,
	}, t.TempDir())
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHTMLSectionMediaAttachesToEveryChunk(t *testing.T) {
	long := strings.Repeat("troubleshooting the printer queue ", 10)
	doc := `<html><body><div id="main-content">
		<div>
			<p>` + long + `</p>
			<p>` + long + `</p>
			<img src="images/printer.png" width="300" height="200">
		</div>
	</div></body></html>`
	path := writeDoc(t, "guide.html", doc)

	chunks, err := newTestParser(t, 120, 20).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.Len(t, chunk.ImageRefs, 1)
		require.Equal(t, "/media/images/printer.png", chunk.ImageRefs[0].URL)
		require.Equal(t, model.MediaOriginLocal, chunk.ImageRefs[0].Origin)
	}
}

func TestHTMLMediaScopedPerSection(t *testing.T) {
	doc := `<html><body><div id="main-content">
		<div><p>first section text about settings</p><img src="a.png" width="300" height="200"></div>
		<div><p>second section text about accounts</p><img src="b.png" width="300" height="200"></div>
	</div></body></html>`
	path := writeDoc(t, "sections.html", doc)

	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, "/media/a.png", chunks[0].ImageRefs[0].URL)
	require.Equal(t, "/media/b.png", chunks[1].ImageRefs[0].URL)
}

func TestHTMLIconFilter(t *testing.T) {
	doc := `<html><body><div id="main-content"><div>
		<p>section with decorative images</p>
		<img src="tiny.png" width="10" height="10">
		<img src="assets/bullet-point.gif">
		<img src="real-screenshot.png" width="640" height="480">
	</div></div></body></html>`
	path := writeDoc(t, "icons.html", doc)

	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].ImageRefs, 1)
	require.Equal(t, "/media/real-screenshot.png", chunks[0].ImageRefs[0].URL)
}

func TestHTMLVideoNormalization(t *testing.T) {
	doc := `<html><body><div id="main-content"><div>
		<p>video walkthrough for password reset</p>
		<iframe src="https://www.youtube.com/watch?v=abc123"></iframe>
		<iframe src="https://youtu.be/def456"></iframe>
		<iframe src="https://example.com/not-a-video"></iframe>
	</div></div></body></html>`
	path := writeDoc(t, "videos.html", doc)

	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	urls := make([]string, 0, len(chunks[0].VideoRefs))
	for _, ref := range chunks[0].VideoRefs {
		urls = append(urls, ref.URL)
	}
	require.Equal(t, []string{
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/embed/def456",
	}, urls)
}

func TestHTMLSkipsChromeAndScripts(t *testing.T) {
	doc := `<html><body>
		<nav>navigation junk</nav>
		<div id="main-content"><div><p>actual content</p><script>var x = 1;</script></div></div>
		<footer>footer junk</footer>
	</body></html>`
	path := writeDoc(t, "chrome.html", doc)

	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "actual content", chunks[0].Text)
}

func TestHTMLEmptyDocument(t *testing.T) {
	path := writeDoc(t, "empty.html", `<html><body><div id="main-content"></div></body></html>`)
	_, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.Error(t, err)
}

func TestParseFileUnsupportedFormat(t *testing.T) {
	path := writeDoc(t, "data.csv", "a,b,c")
	_, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.Error(t, err)
}

func TestParseTextFile(t *testing.T) {
	path := writeDoc(t, "policy.txt", "Remote work is allowed 3 days per week.")
	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "kb/policy.txt", chunks[0].SourceDoc)
	require.Equal(t, "kb/policy.txt#chunk-1", chunks[0].Source)
	require.Empty(t, chunks[0].ImageRefs)
	require.Empty(t, chunks[0].VideoRefs)
}
