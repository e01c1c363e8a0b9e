package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/parser"
)

func TestChunkTextCoversInput(t *testing.T) {
	input := strings.Repeat("abcdefghij", 50)
	size, overlap := 120, 30

	chunks, err := parser.ChunkText(input, size, overlap)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Concatenating windows with the overlap removed must reproduce the
	// input exactly: no character dropped, none duplicated.
	rebuilt := chunks[0]
	for _, chunk := range chunks[1:] {
		rebuilt += chunk[overlap:]
	}
	require.Equal(t, input, rebuilt)
}

func TestChunkTextShortInputSingleWindow(t *testing.T) {
	chunks, err := parser.ChunkText("short text", 100, 20)
	require.NoError(t, err)
	require.Equal(t, []string{"short text"}, chunks)
}

func TestChunkTextNormalizesWhitespace(t *testing.T) {
	chunks, err := parser.ChunkText("  a \n\n b\t c  ", 100, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"a b c"}, chunks)
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunks, err := parser.ChunkText("   \n \t ", 100, 10)
	require.NoError(t, err)
	require.Empty(t, chunks)
}

func TestChunkTextRejectsOverlapNotSmallerThanSize(t *testing.T) {
	_, err := parser.ChunkText("text", 10, 10)
	require.Error(t, err)
	_, err = parser.ChunkText("text", 10, 15)
	require.Error(t, err)
	_, err = parser.ChunkText("text", 0, 0)
	require.Error(t, err)
}

func TestChunkTextRuneSafe(t *testing.T) {
	input := strings.Repeat("日本語テキスト処理", 40)
	chunks, err := parser.ChunkText(input, 50, 10)
	require.NoError(t, err)
	for _, chunk := range chunks {
		require.True(t, strings.HasPrefix(input, chunks[0]))
		require.LessOrEqual(t, len([]rune(chunk)), 50)
	}
}
