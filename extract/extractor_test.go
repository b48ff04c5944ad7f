package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextExtractor_PlainText(t *testing.T) {
	e := NewTextExtractor()

	text, err := e.Extract(context.Background(), []byte("hello world"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestTextExtractor_Markdown(t *testing.T) {
	e := NewTextExtractor()

	input := "# Title\n\nSome *emphasised* prose with a [link](https://example.com).\n\n```go\ncode here\n```\n"
	text, err := e.Extract(context.Background(), []byte(input), "README.md")
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "emphasised prose")
	assert.Contains(t, text, "link")
	assert.NotContains(t, text, "code here")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "](")
}

func TestTextExtractor_UnsupportedFormat(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4"), "report.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTextExtractor_BinaryContent(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0x00, 0x80}, "data.txt")
	assert.ErrorIs(t, err, ErrBinaryContent)
}

func TestFunc_Adapter(t *testing.T) {
	called := false
	f := Func(func(ctx context.Context, data []byte, filename string) (string, error) {
		called = true
		return string(data), nil
	})

	text, err := f.Extract(context.Background(), []byte("x"), "x.txt")
	require.NoError(t, err)
	assert.Equal(t, "x", text)
	assert.True(t, called)
}
