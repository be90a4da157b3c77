package export

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExporter_Options(t *testing.T) {
	assert.Len(t, NewPDFExporter("/usr/bin/chromium").allocatorOptions(), len(NewPDFExporter("").allocatorOptions())+1)
}

func TestPDFExporter_HTMLToPDF(t *testing.T) {
	chrome := os.Getenv("CHROME_PATH")
	if chrome == "" {
		t.Skip("CHROME_PATH not set")
	}

	pdf, err := NewPDFExporter(chrome).HTMLToPDF(context.Background(), []byte("<html><body><h1>hello</h1></body></html>"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
