package parser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdownSplitsOnHeadings(t *testing.T) {
	doc := `# Printer setup

Connect the printer and install the driver.

![setup screen](setup.png)

## Troubleshooting

If the queue stalls, restart the spooler service.
`
	path := writeDoc(t, "printer.md", doc)

	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	require.Contains(t, chunks[0].Text, "Printer setup")
	require.Contains(t, chunks[0].Text, "install the driver")
	require.Len(t, chunks[0].ImageRefs, 1)
	require.Equal(t, "/media/setup.png", chunks[0].ImageRefs[0].URL)

	require.Contains(t, chunks[1].Text, "Troubleshooting")
	require.Contains(t, chunks[1].Text, "restart the spooler")
	require.Empty(t, chunks[1].ImageRefs)
}

func TestMarkdownWithoutHeadingsSingleSection(t *testing.T) {
	path := writeDoc(t, "note.md", "Just a short note with no headings at all.")
	chunks, err := newTestParser(t, 500, 50).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Text, "short note")
}
