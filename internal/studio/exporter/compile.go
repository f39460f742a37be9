package exporter

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"invite-studio/internal/studio/assets"
	"invite-studio/internal/studio/models"
)

const whatsAppBase = "https://wa.me/"

// Compile turns an editor snapshot into a portable config. The input is
// deep-cloned first and never modified. Pending uploads are staged through
// the resolver (backgrounds in page order, then music) and settings-driven
// actions become plain external links.
func Compile(ctx context.Context, p models.Project, blobs assets.BlobSource) (models.Project, []assets.File, error) {
	cfg := p.Clone()
	resolver := assets.NewResolver(blobs)

	for i := range cfg.Pages {
		src, err := resolver.Media(ctx, cfg.Pages[i].Background.Source)
		if err != nil {
			return models.Project{}, nil, err
		}
		cfg.Pages[i].Background.Source = src
	}

	src, err := resolver.Music(ctx, cfg.Settings.BackgroundMusic.Source)
	if err != nil {
		return models.Project{}, nil, err
	}
	cfg.Settings.BackgroundMusic.Source = src

	rsvp := RSVPLink(cfg.Settings)
	maps := models.ExternalLinkAction{URL: cfg.Settings.MapURL, NewTab: true}

	for i := range cfg.Pages {
		for j := range cfg.Pages[i].Hotspots {
			h := &cfg.Pages[i].Hotspots[j]
			switch h.Action.(type) {
			case models.RSVPAction:
				h.Action = rsvp
			case models.MapAction:
				h.Action = maps
			}
		}
	}

	return cfg, resolver.Files(), nil
}

// RSVPLink resolves the confirmation action for the configured mode.
func RSVPLink(s models.GlobalSettings) models.ExternalLinkAction {
	if s.ConfirmationMode == models.ConfirmForm {
		return models.ExternalLinkAction{URL: s.FormURL, NewTab: true}
	}
	return models.ExternalLinkAction{URL: WhatsAppURL(s.WhatsApp), NewTab: true}
}

// WhatsAppURL builds a click-to-chat link. The number keeps only its digits
// and the message is percent-encoded with spaces as %20.
func WhatsAppURL(w models.WhatsApp) string {
	digits := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return -1
		}
		return r
	}, w.Number)

	text := strings.ReplaceAll(url.QueryEscape(w.Message), "+", "%20")
	return whatsAppBase + digits + "?text=" + text
}
