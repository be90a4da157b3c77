package channel

import (
	"context"
	"fmt"

	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/model"
	"github.com/sirupsen/logrus"
)

// PreviewKey is the slot key shared by the editing and preview contexts of a session.
func PreviewKey(sessionID string) string {
	return "preview:" + sessionID
}

// Publisher writes the editing context's latest document to the shared slot.
type Publisher struct {
	slot  cache.Slot
	key   string
	codec *Codec
}

func NewPublisher(slot cache.Slot, key string, codec *Codec) *Publisher {
	return &Publisher{slot: slot, key: key, codec: codec}
}

// Publish serializes the whole document and overwrites the slot. There is no
// acknowledgement from readers; the error only reports the local write.
func (p *Publisher) Publish(ctx context.Context, doc *model.PortfolioDocument) error {
	data, err := p.codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	if err := p.slot.Set(ctx, p.key, data); err != nil {
		logrus.Warnf("publish to slot %s failed: %v", p.key, err)
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	return nil
}

// Read returns the document currently in the slot.
func Read(ctx context.Context, slot cache.Slot, key string, codec *Codec) (*model.PortfolioDocument, error) {
	data, err := slot.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	doc, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	return doc, nil
}
