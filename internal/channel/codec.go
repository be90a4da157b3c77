package channel

import (
	"encoding/json"
	"fmt"

	"github.com/emrgen/folio/internal/compress"
	"github.com/emrgen/folio/internal/model"
)

// Codec turns documents into slot values and back.
type Codec struct {
	compress compress.Compress
}

func NewCodec(c compress.Compress) *Codec {
	if c == nil {
		c = compress.NewNop()
	}
	return &Codec{compress: c}
}

func (c *Codec) Compression() string {
	return c.compress.Name()
}

func (c *Codec) Encode(doc *model.PortfolioDocument) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return c.compress.Encode(data)
}

func (c *Codec) Decode(data []byte) (*model.PortfolioDocument, error) {
	raw, err := c.compress.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode slot value: %w", err)
	}

	return model.ParseDocument(raw)
}
