package service

import (
	"encoding/base64"
	"fmt"

	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/compress"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/render"
)

// encodeContent serializes doc for a text column. Compressed payloads are base64
// encoded; uncompressed ones are stored as plain json.
func encodeContent(codec *channel.Codec, doc *model.PortfolioDocument) (string, string, error) {
	data, err := codec.Encode(doc)
	if err != nil {
		return "", "", err
	}

	name := codec.Compression()
	if name == compress.NameNop {
		return string(data), name, nil
	}

	return base64.StdEncoding.EncodeToString(data), name, nil
}

func decodeContent(content, compression string) (*model.PortfolioDocument, error) {
	c, err := compress.FromName(compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
	}

	data := []byte(content)
	if c.Name() != compress.NameNop {
		data, err = base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
		}
	}

	raw, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
	}

	// stored rows may predate the current editor or be written by hand
	if err := render.ValidateJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentCorrupted, err)
	}

	doc, err := model.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
	}

	return doc, nil
}
