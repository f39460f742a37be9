package playback

import (
	"context"
	"errors"
	"testing"

	"invite-studio/internal/studio/models"
)

type fakePreloader struct {
	err  error
	seen []Asset
}

func (f *fakePreloader) Preload(_ context.Context, assets []Asset) error {
	f.seen = assets
	return f.err
}

// exported returns a compiled-looking config: video page in the middle with
// resolved sources everywhere.
func exported() models.Project {
	cfg := models.NewProject("party")
	cfg.Pages[1].Background.Source = models.Resolved{URL: "assets/media_0.mp4"}
	cfg.Pages[1].Hotspots[0].ShowAfterVideoEnd = true
	cfg.Pages[2].Hotspots[0].Action = models.ExternalLinkAction{URL: "https://wa.me/1?text=hi", NewTab: true}
	cfg.Pages[2].Hotspots[1].Action = models.NavigateAction{TargetPageID: "cover"}
	cfg.Settings.BackgroundMusic.Source = models.Resolved{URL: "assets/music_1.mp3"}
	cfg.Settings.BackgroundMusic.DuckOnVideo = true
	return cfg
}

func started(t *testing.T, cfg models.Project) *Player {
	t.Helper()
	p := New(cfg)
	if err := p.Start(context.Background(), &fakePreloader{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	return p
}

func TestStartPreloadsEverything(t *testing.T) {
	pre := &fakePreloader{}
	p := New(exported())
	if p.Phase() != PhaseLoading {
		t.Fatalf("phase = %s", p.Phase())
	}
	if err := p.Start(context.Background(), pre); err != nil {
		t.Fatal(err)
	}
	if len(pre.seen) != 4 || pre.seen[1].Kind != AssetVideo || pre.seen[3].Kind != AssetAudio {
		t.Errorf("preloaded %+v", pre.seen)
	}
	if p.Current() != "cover" || p.Phase() != PhaseReady {
		t.Errorf("state = %s/%s", p.Phase(), p.Current())
	}
	if p.Audio().Playing {
		t.Error("music started before any interaction")
	}
}

func TestStartFailureIsFinal(t *testing.T) {
	p := New(exported())
	err := p.Start(context.Background(), &fakePreloader{err: errors.New("404")})
	if err == nil || p.Phase() != PhaseFailed {
		t.Fatalf("phase = %s, err = %v", p.Phase(), err)
	}
	if eff := p.Click("hotspot_cover_1"); eff.Kind != EffectNone {
		t.Error("failed player reacted to a click")
	}
	if err2 := p.Start(context.Background(), &fakePreloader{}); err2 == nil {
		t.Error("start retried after failure")
	}
}

func TestStartPage(t *testing.T) {
	cfg := exported()
	cfg.StartPageID = "hub"
	p := New(cfg)
	p.Start(context.Background(), &fakePreloader{})
	if p.Current() != "hub" {
		t.Errorf("current = %s", p.Current())
	}

	cfg.StartPageID = "nowhere"
	p = New(cfg)
	p.Start(context.Background(), &fakePreloader{})
	if p.Current() != "cover" {
		t.Errorf("current = %s", p.Current())
	}
}

func TestNavigateDetachesOutgoingVideo(t *testing.T) {
	p := started(t, exported())

	eff := p.Click("hotspot_cover_1")
	if eff.Kind != EffectNavigate || eff.Transition.To != "video" || eff.Transition.Detached != "" {
		t.Fatalf("cover -> video = %+v", eff)
	}
	if p.BoundVideo() != "video" {
		t.Fatalf("video handlers not attached")
	}
	if !p.Audio().Playing {
		t.Error("first click did not start autoplay music")
	}

	p.VideoEnded()
	eff = p.Click("hotspot_video_1")
	if eff.Kind != EffectNavigate || eff.Transition.From != "video" || eff.Transition.To != "hub" {
		t.Fatalf("video -> hub = %+v", eff)
	}
	if eff.Transition.Detached != "video" || p.BoundVideo() != "" {
		t.Errorf("outgoing video not detached: %+v bound=%q", eff.Transition, p.BoundVideo())
	}

	// Events from the removed video no longer reach the audio element.
	before := p.Audio()
	p.VideoPlay()
	if p.Audio() != before {
		t.Error("detached video still ducks audio")
	}
}

func TestShowAfterVideoEnd(t *testing.T) {
	p := started(t, exported())
	p.Click("hotspot_cover_1")

	if got := p.VisibleHotspots(); len(got) != 0 {
		t.Errorf("visible before end: %v", got)
	}
	if eff := p.Click("hotspot_video_1"); eff.Kind != EffectNone {
		t.Error("hidden hotspot was clickable")
	}

	p.VideoEnded()
	if got := p.VisibleHotspots(); len(got) != 1 {
		t.Errorf("visible after end: %v", got)
	}
}

func TestLoopingVideoAndEnd(t *testing.T) {
	// Waiting hotspots on a looping video: the end reveals them and the
	// runtime restarts the video itself.
	p := started(t, exported())
	p.Click("hotspot_cover_1")
	if !p.VideoEnded() {
		t.Error("looping video waiting for its end was not restarted")
	}
	if got := p.VisibleHotspots(); len(got) != 1 {
		t.Errorf("visible after end: %v", got)
	}

	// Without waiting hotspots the element loops natively and never ends.
	cfg := exported()
	cfg.Pages[1].Hotspots[0].ShowAfterVideoEnd = false
	cfg.StartPageID = "video"
	p = New(cfg)
	p.Start(context.Background(), &fakePreloader{})
	p.VideoPlay()
	if p.VideoEnded() {
		t.Error("native loop asked for a restart")
	}
	if v := p.Audio().Volume; v != 0.5*0.2 {
		t.Errorf("ended on a native loop touched the ducked volume: %v", v)
	}

	// A non-looping video ends once and stays ended.
	cfg = exported()
	cfg.Pages[1].Background.VideoSettings.Loop = false
	cfg.StartPageID = "video"
	p = New(cfg)
	p.Start(context.Background(), &fakePreloader{})
	if p.VideoEnded() {
		t.Error("non-looping video restarted")
	}
	if got := p.VisibleHotspots(); len(got) != 1 {
		t.Errorf("visible after end: %v", got)
	}
}

func TestWaitsForVideoEnd(t *testing.T) {
	cfg := exported()
	if !WaitsForVideoEnd(cfg.Pages[1]) {
		t.Error("video page with a waiting hotspot")
	}
	cfg.Pages[0].Hotspots[0].ShowAfterVideoEnd = true
	if WaitsForVideoEnd(cfg.Pages[0]) {
		t.Error("image page never waits")
	}
}

func TestDuckingRestoresVolume(t *testing.T) {
	p := started(t, exported())
	p.Click("hotspot_cover_1")

	p.VideoPlay()
	if v := p.Audio().Volume; v != 0.5*0.2 {
		t.Errorf("ducked volume = %v", v)
	}
	p.VideoPause()
	if v := p.Audio().Volume; v != 0.5 {
		t.Errorf("restored volume = %v", v)
	}

	// Leaving a ducked video page restores the volume as well.
	p.VideoPlay()
	p.VideoEnded()
	p.VideoPlay()
	p.Click("hotspot_video_1")
	if v := p.Audio().Volume; v != 0.5 {
		t.Errorf("volume after leaving = %v", v)
	}
}

func TestStopOnVideoResumesOnlyAfterInteraction(t *testing.T) {
	cfg := exported()
	cfg.Settings.BackgroundMusic.StopOnVideo = true
	cfg.StartPageID = "video"
	p := New(cfg)
	p.Start(context.Background(), &fakePreloader{})

	// No click yet: the video ending must not start the music.
	p.VideoPlay()
	p.VideoEnded()
	if p.Audio().Playing {
		t.Fatal("music started without interaction")
	}

	p.Click("hotspot_video_1")
	p.Click("hotspot_hub_2")
	p.Click("hotspot_cover_1")
	if !p.Audio().Playing {
		t.Fatal("click did not start music")
	}
	p.VideoPlay()
	if p.Audio().Playing {
		t.Error("music kept playing over the video")
	}
	p.VideoPause()
	if !p.Audio().Playing {
		t.Error("music not resumed after interaction")
	}
}

func TestExternalLinkKeepsPage(t *testing.T) {
	cfg := exported()
	cfg.StartPageID = "hub"
	p := New(cfg)
	p.Start(context.Background(), &fakePreloader{})

	eff := p.Click("hotspot_hub_1")
	if eff.Kind != EffectOpen || !eff.NewTab || eff.URL != "https://wa.me/1?text=hi" {
		t.Errorf("effect = %+v", eff)
	}
	if p.Current() != "hub" {
		t.Error("external link changed page")
	}
}

func TestNavigateToUnknownPageIgnored(t *testing.T) {
	cfg := exported()
	cfg.Pages[0].Hotspots[0].Action = models.NavigateAction{TargetPageID: "gone", Invalid: true}
	p := started(t, cfg)
	if eff := p.Click("hotspot_cover_1"); eff.Kind != EffectNone || p.Current() != "cover" {
		t.Errorf("effect = %+v, current = %s", eff, p.Current())
	}
}

func TestReachable(t *testing.T) {
	cfg := exported()
	cfg.Pages = append(cfg.Pages, models.Page{
		ID:   "orphan",
		Type: models.PageInternal,
		Hotspots: []models.Hotspot{
			{ID: "back", Action: models.NavigateAction{TargetPageID: "deleted", Invalid: true}},
		},
	})

	r := Reachable(cfg)
	if len(r.Unreachable) != 1 || r.Unreachable[0] != "orphan" {
		t.Errorf("unreachable = %v", r.Unreachable)
	}
	if len(r.InvalidLinks) != 1 || r.InvalidLinks[0].HotspotID != "back" {
		t.Errorf("invalid = %v", r.InvalidLinks)
	}
	if r.Clean() {
		t.Error("report should not be clean")
	}
	if !Reachable(exported()).Clean() {
		t.Error("starter project should be fully reachable")
	}
}

func TestReachableFromStartPage(t *testing.T) {
	cfg := exported()
	cfg.Pages[2].Hotspots[1].Action = models.ExternalLinkAction{URL: "https://maps.example", NewTab: true}
	cfg.StartPageID = "hub"

	r := Reachable(cfg)
	if len(r.Unreachable) != 2 || r.Unreachable[0] != "cover" || r.Unreachable[1] != "video" {
		t.Errorf("unreachable from hub = %v", r.Unreachable)
	}
}
