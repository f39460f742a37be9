package models

// ============================================================
// Enumerations
// ============================================================

type PageType string

const (
	PageCover    PageType = "cover"
	PageVideo    PageType = "video"
	PageHub      PageType = "hub"
	PageInternal PageType = "internal"
)

// Valid reports whether t is one of the known page tags.
func (t PageType) Valid() bool {
	switch t {
	case PageCover, PageVideo, PageHub, PageInternal:
		return true
	}
	return false
}

type BackgroundKind string

const (
	BackgroundImage BackgroundKind = "image"
	BackgroundVideo BackgroundKind = "video"
)

type ConfirmationMode string

const (
	ConfirmWhatsApp ConfirmationMode = "whatsapp"
	ConfirmForm     ConfirmationMode = "form"
)

// ============================================================
// Geometry primitives
// ============================================================

// Rect is expressed in percent of the page viewport (0..100).
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ============================================================
// Media
// ============================================================

type VideoSettings struct {
	Autoplay bool `json:"autoplay"`
	Loop     bool `json:"loop"`
	Muted    bool `json:"muted"`
	Controls bool `json:"controls"`
}

func DefaultVideoSettings() VideoSettings {
	return VideoSettings{Autoplay: true, Loop: true, Muted: true, Controls: false}
}

type Background struct {
	Kind          BackgroundKind
	Source        Source
	VideoSettings *VideoSettings
}

type BackgroundMusic struct {
	Source      Source
	Volume      float64
	Loop        bool
	Autoplay    bool
	StopOnVideo bool
	DuckOnVideo bool
	DuckVolume  float64
}

// ============================================================
// Hotspots & pages
// ============================================================

type Hotspot struct {
	ID                string
	Name              string
	Rect              Rect
	Action            Action
	ShowAfterVideoEnd bool
}

type Page struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       PageType   `json:"type"`
	Background Background `json:"background"`
	Hotspots   []Hotspot  `json:"hotspots"`
}

// HotspotIndex returns the position of the hotspot with the given id or -1.
func (p *Page) HotspotIndex(id string) int {
	for i := range p.Hotspots {
		if p.Hotspots[i].ID == id {
			return i
		}
	}
	return -1
}

// ============================================================
// Settings & project
// ============================================================

type WhatsApp struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

type GlobalSettings struct {
	MapURL           string           `json:"mapUrl"`
	ConfirmationMode ConfirmationMode `json:"confirmationMode"`
	WhatsApp         WhatsApp         `json:"whatsapp"`
	FormURL          string           `json:"formUrl"`
	BackgroundMusic  BackgroundMusic  `json:"backgroundMusic"`
}

type Project struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
	// StartPageID picks the page a visitor lands on. Empty means the first page.
	StartPageID string         `json:"startPageId,omitempty"`
	Settings    GlobalSettings `json:"settings"`
}

// StartPage returns the id of the landing page.
func (p *Project) StartPage() string {
	if p.StartPageID != "" && p.HasPage(p.StartPageID) {
		return p.StartPageID
	}
	if len(p.Pages) == 0 {
		return ""
	}
	return p.Pages[0].ID
}

// PageIndex returns the position of the page with the given id or -1.
func (p *Project) PageIndex(id string) int {
	for i := range p.Pages {
		if p.Pages[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *Project) HasPage(id string) bool {
	return p.PageIndex(id) >= 0
}

// FirstPageOfType returns the id of the first page tagged t.
func (p *Project) FirstPageOfType(t PageType) (string, bool) {
	for _, page := range p.Pages {
		if page.Type == t {
			return page.ID, true
		}
	}
	return "", false
}

// Clone returns a deep copy that shares no mutable state with p.
func (p Project) Clone() Project {
	out := p
	out.Pages = make([]Page, len(p.Pages))
	for i, page := range p.Pages {
		out.Pages[i] = page.Clone()
	}
	return out
}

func (p Page) Clone() Page {
	out := p
	out.Background = p.Background.Clone()
	out.Hotspots = make([]Hotspot, len(p.Hotspots))
	copy(out.Hotspots, p.Hotspots)
	return out
}

func (b Background) Clone() Background {
	out := b
	if b.VideoSettings != nil {
		vs := *b.VideoSettings
		out.VideoSettings = &vs
	}
	return out
}
