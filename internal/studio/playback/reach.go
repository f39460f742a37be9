package playback

import "invite-studio/internal/studio/models"

type HotspotRef struct {
	PageID    string `json:"pageId"`
	HotspotID string `json:"hotspotId"`
}

// Report lists pages a visitor can never reach from the initial page and
// navigate hotspots whose target is gone.
type Report struct {
	Unreachable  []string     `json:"unreachable"`
	InvalidLinks []HotspotRef `json:"invalidLinks"`
}

func (r Report) Clean() bool {
	return len(r.Unreachable) == 0 && len(r.InvalidLinks) == 0
}

// Reachable walks navigate actions breadth first from the start page.
func Reachable(cfg models.Project) Report {
	report := Report{Unreachable: []string{}, InvalidLinks: []HotspotRef{}}
	if len(cfg.Pages) == 0 {
		return report
	}

	start := cfg.StartPage()
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		page := cfg.Pages[cfg.PageIndex(queue[0])]
		queue = queue[1:]

		for _, h := range page.Hotspots {
			nav, ok := h.Action.(models.NavigateAction)
			if !ok || seen[nav.TargetPageID] || !cfg.HasPage(nav.TargetPageID) {
				continue
			}
			seen[nav.TargetPageID] = true
			queue = append(queue, nav.TargetPageID)
		}
	}

	for _, page := range cfg.Pages {
		if !seen[page.ID] {
			report.Unreachable = append(report.Unreachable, page.ID)
		}
		for _, h := range page.Hotspots {
			if nav, ok := h.Action.(models.NavigateAction); ok && (nav.Invalid || !cfg.HasPage(nav.TargetPageID)) {
				report.InvalidLinks = append(report.InvalidLinks, HotspotRef{PageID: page.ID, HotspotID: h.ID})
			}
		}
	}
	return report
}
