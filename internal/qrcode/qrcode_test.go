package qrcode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(0)

	first, err := r.Render("Order ID: 42, Table Number: 3")
	require.NoError(t, err)
	second, err := r.Render("Order ID: 42, Table Number: 3")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(first, pngMagic))
	assert.Equal(t, first, second)

	other, err := r.Render("Order ID: 43, Table Number: 3")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestRender_LongReceiptFits(t *testing.T) {
	r := NewRenderer(0)

	// Beyond the byte capacity of a medium recovery level code.
	long := strings.Repeat("guest line x ", 200)[:2500]
	png, err := r.Render(long)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))

	_, err = r.Render(strings.Repeat("x", 3000))
	assert.Error(t, err)
}

func TestRender_Empty(t *testing.T) {
	_, err := NewRenderer(128).Render("")
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	uri := DataURI([]byte{1, 2, 3})
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, "data:image/png;base64,AQID", uri)
}
