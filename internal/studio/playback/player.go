package playback

import (
	"context"
	"errors"
	"fmt"

	"invite-studio/internal/studio/models"
)

// Player replays an exported config the way the bundled app.js does. The
// browser runtime is the real consumer; Player exists so the transition and
// audio rules can be checked from Go and by the exporter.

var ErrNoPages = errors.New("config has no pages")

type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseFailed  Phase = "failed"
	PhaseReady   Phase = "ready"
)

// ============================================================
// Preloading
// ============================================================

type AssetKind string

const (
	AssetImage AssetKind = "image"
	AssetVideo AssetKind = "video"
	AssetAudio AssetKind = "audio"
)

type Asset struct {
	Kind AssetKind
	URL  string
}

// Preloader fetches every asset before the first page renders. Any error
// fails startup.
type Preloader interface {
	Preload(ctx context.Context, assets []Asset) error
}

// Assets lists what has to be preloaded: every page background with a
// source, then the music track.
func Assets(cfg models.Project) []Asset {
	var out []Asset
	for _, page := range cfg.Pages {
		url := models.SourceURL(page.Background.Source)
		if url == "" {
			continue
		}
		kind := AssetImage
		if page.Background.Kind == models.BackgroundVideo {
			kind = AssetVideo
		}
		out = append(out, Asset{Kind: kind, URL: url})
	}
	if url := models.SourceURL(cfg.Settings.BackgroundMusic.Source); url != "" {
		out = append(out, Asset{Kind: AssetAudio, URL: url})
	}
	return out
}

// ============================================================
// Player
// ============================================================

// Audio is the state of the single persistent music element.
type Audio struct {
	Present bool
	Playing bool
	Volume  float64
	// Base is the user-chosen volume that ducking is relative to.
	Base float64
}

type EffectKind string

const (
	EffectNone     EffectKind = "none"
	EffectNavigate EffectKind = "navigate"
	EffectOpen     EffectKind = "open"
)

// Transition describes one page switch.
type Transition struct {
	From string
	To   string
	// Detached is the page whose video handlers were removed, if any.
	Detached string
}

type Effect struct {
	Kind       EffectKind
	URL        string
	NewTab     bool
	Transition *Transition
}

type Player struct {
	cfg        models.Project
	phase      Phase
	err        error
	current    string
	bound      string
	nativeLoop bool
	videoEnded bool
	interacted bool
	audio      Audio
}

// New prepares a player. The initial page is cfg.StartPage().
func New(cfg models.Project) *Player {
	return &Player{cfg: cfg, phase: PhaseLoading}
}

func (p *Player) Phase() Phase       { return p.phase }
func (p *Player) Err() error         { return p.err }
func (p *Player) Current() string    { return p.current }
func (p *Player) Audio() Audio       { return p.audio }
func (p *Player) BoundVideo() string { return p.bound }

// Start preloads every asset and renders the initial page. A failure leaves
// the player in PhaseFailed for good.
func (p *Player) Start(ctx context.Context, pre Preloader) error {
	if p.phase != PhaseLoading {
		return p.err
	}

	if len(p.cfg.Pages) == 0 {
		return p.fail(ErrNoPages)
	}
	if err := pre.Preload(ctx, Assets(p.cfg)); err != nil {
		return p.fail(fmt.Errorf("preload: %w", err))
	}

	music := p.cfg.Settings.BackgroundMusic
	if models.SourceURL(music.Source) != "" {
		p.audio = Audio{Present: true, Volume: music.Volume, Base: music.Volume}
	}

	p.render(p.cfg.StartPage())
	p.phase = PhaseReady
	return nil
}

func (p *Player) fail(err error) error {
	p.phase = PhaseFailed
	p.err = err
	return err
}

// Click performs a hotspot's action on the current page. The first click
// starts the music when autoplay is configured, before the action runs.
func (p *Player) Click(hotspotID string) Effect {
	none := Effect{Kind: EffectNone}
	if p.phase != PhaseReady {
		return none
	}

	page := p.page(p.current)
	hi := page.HotspotIndex(hotspotID)
	if hi < 0 || !p.visible(page, page.Hotspots[hi]) {
		return none
	}

	p.interact()

	switch a := page.Hotspots[hi].Action.(type) {
	case models.NavigateAction:
		if !p.cfg.HasPage(a.TargetPageID) {
			return none
		}
		t := p.render(a.TargetPageID)
		return Effect{Kind: EffectNavigate, Transition: &t}
	case models.ExternalLinkAction:
		return Effect{Kind: EffectOpen, URL: a.URL, NewTab: a.NewTab}
	default:
		return none
	}
}

func (p *Player) interact() {
	if p.interacted {
		return
	}
	p.interacted = true
	if p.audio.Present && p.cfg.Settings.BackgroundMusic.Autoplay {
		p.audio.Playing = true
	}
}

// render switches to pageID. Video handlers of the outgoing page are
// detached before the new page binds its own.
func (p *Player) render(pageID string) Transition {
	t := Transition{From: p.current, To: pageID}

	if p.bound != "" {
		t.Detached = p.bound
		p.bound = ""
		if p.audio.Present && p.cfg.Settings.BackgroundMusic.DuckOnVideo {
			p.audio.Volume = p.audio.Base
		}
	}

	p.current = pageID
	p.videoEnded = false
	p.nativeLoop = false

	page := p.page(pageID)
	if page.Background.Kind == models.BackgroundVideo && models.SourceURL(page.Background.Source) != "" {
		p.bound = pageID
		p.nativeLoop = loops(page.Background) && !WaitsForVideoEnd(*page)
	}
	return t
}

// WaitsForVideoEnd reports whether page has hotspots hidden until its video
// ends. Such a video never loops natively, since a looping element never
// fires "ended"; the runtime restarts it by hand instead.
func WaitsForVideoEnd(page models.Page) bool {
	if page.Background.Kind != models.BackgroundVideo {
		return false
	}
	for _, h := range page.Hotspots {
		if h.ShowAfterVideoEnd {
			return true
		}
	}
	return false
}

func loops(bg models.Background) bool {
	if bg.VideoSettings == nil {
		return models.DefaultVideoSettings().Loop
	}
	return bg.VideoSettings.Loop
}

// ============================================================
// Video events
// ============================================================

// VideoPlay reacts to the current page's video starting.
func (p *Player) VideoPlay() {
	if !p.videoBound() || !p.audio.Present {
		return
	}
	music := p.cfg.Settings.BackgroundMusic
	switch {
	case music.StopOnVideo:
		p.audio.Playing = false
	case music.DuckOnVideo:
		p.audio.Volume = p.audio.Base * music.DuckVolume
	}
}

// VideoPause reacts to the current page's video pausing.
func (p *Player) VideoPause() {
	if !p.videoBound() || !p.audio.Present {
		return
	}
	music := p.cfg.Settings.BackgroundMusic
	switch {
	case music.StopOnVideo:
		if p.interacted {
			p.audio.Playing = true
		}
	case music.DuckOnVideo:
		p.audio.Volume = p.audio.Base
	}
}

// VideoEnded behaves like VideoPause and reveals hotspots waiting for the
// video to finish. restart is true when the video is configured to loop and
// must be started again by the runtime. A natively looping video never
// ends, so the event is ignored for it.
func (p *Player) VideoEnded() (restart bool) {
	if !p.videoBound() || p.nativeLoop {
		return false
	}
	p.videoEnded = true
	p.VideoPause()
	return loops(p.page(p.current).Background)
}

func (p *Player) videoBound() bool {
	return p.phase == PhaseReady && p.bound != "" && p.bound == p.current
}

// ============================================================
// Controls & visibility
// ============================================================

// TogglePlay is the play/pause button.
func (p *Player) TogglePlay() {
	if p.audio.Present {
		p.audio.Playing = !p.audio.Playing
	}
}

// SetVolume is the volume slider; it also moves the ducking base.
func (p *Player) SetVolume(v float64) {
	if !p.audio.Present {
		return
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	p.audio.Volume = v
	p.audio.Base = v
}

// VisibleHotspots returns the ids of the clickable hotspots on the current page.
func (p *Player) VisibleHotspots() []string {
	if p.phase != PhaseReady {
		return nil
	}
	page := p.page(p.current)
	var out []string
	for _, h := range page.Hotspots {
		if p.visible(page, h) {
			out = append(out, h.ID)
		}
	}
	return out
}

func (p *Player) visible(page *models.Page, h models.Hotspot) bool {
	if h.ShowAfterVideoEnd && page.Background.Kind == models.BackgroundVideo {
		return p.videoEnded
	}
	return true
}

func (p *Player) page(id string) *models.Page {
	return &p.cfg.Pages[p.cfg.PageIndex(id)]
}
