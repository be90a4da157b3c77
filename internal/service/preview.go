package service

import (
	"context"

	"github.com/emrgen/folio/internal/channel"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/theme"
	"github.com/sirupsen/logrus"
)

// PreviewView is what a preview context shows for a session.
type PreviewView struct {
	State   string            `json:"state"`
	View    *render.ViewModel `json:"view,omitempty"`
	Variant *theme.Variant    `json:"variant,omitempty"`
}

func (s *PortfolioService) previewOf(doc *model.PortfolioDocument) PreviewView {
	if doc == nil {
		return PreviewView{State: channel.StateEmpty.String()}
	}

	vm, err := render.Resolve(doc, s.opts.AssetBaseURL)
	if err != nil {
		logrus.Warnf("preview resolve failed: %v", err)
		return PreviewView{State: channel.StateEmpty.String()}
	}
	variant := theme.Select(doc.Theme, doc.Animation)

	return PreviewView{State: channel.StateReady.String(), View: vm, Variant: &variant}
}

// Preview reads the session's slot once. It only talks to the slot, like any other
// preview context, so it works from a process that holds no editor.
func (s *PortfolioService) Preview(ctx context.Context, sessionID string) PreviewView {
	doc, err := channel.Read(ctx, s.slot, channel.PreviewKey(sessionID), s.codec)
	if err != nil {
		logrus.Debugf("preview %s: %v", sessionID, err)
		return s.previewOf(nil)
	}
	return s.previewOf(doc)
}

// WatchPreview follows the session's slot and calls onChange with every distinct
// resolved view. The caller closes the returned subscription.
func (s *PortfolioService) WatchPreview(ctx context.Context, sessionID string, onChange func(PreviewView)) *channel.Subscription {
	sub := channel.NewSubscriber(s.slot, channel.PreviewKey(sessionID), s.codec, s.opts.PollInterval)

	return sub.Subscribe(ctx, func(u channel.Update) {
		if u.State == channel.StateEmpty {
			onChange(s.previewOf(nil))
			return
		}
		onChange(s.previewOf(u.Document))
	})
}
