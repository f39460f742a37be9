package models

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// Hotspot
// ============================================================

type hotspotJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Rect              Rect            `json:"rect"`
	Action            json.RawMessage `json:"action"`
	ShowAfterVideoEnd bool            `json:"showAfterVideoEnd,omitempty"`
}

func (h Hotspot) MarshalJSON() ([]byte, error) {
	action, err := MarshalAction(h.Action)
	if err != nil {
		return nil, fmt.Errorf("hotspot %s: %w", h.ID, err)
	}
	return json.Marshal(hotspotJSON{
		ID:                h.ID,
		Name:              h.Name,
		Rect:              h.Rect,
		Action:            action,
		ShowAfterVideoEnd: h.ShowAfterVideoEnd,
	})
}

func (h *Hotspot) UnmarshalJSON(data []byte) error {
	var raw hotspotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Action) == 0 {
		return fmt.Errorf("hotspot %s: action required", raw.ID)
	}
	action, err := UnmarshalAction(raw.Action)
	if err != nil {
		return fmt.Errorf("hotspot %s: %w", raw.ID, err)
	}

	*h = Hotspot{
		ID:                raw.ID,
		Name:              raw.Name,
		Rect:              raw.Rect,
		Action:            action,
		ShowAfterVideoEnd: raw.ShowAfterVideoEnd,
	}
	return nil
}

// ============================================================
// Background
// ============================================================

type backgroundJSON struct {
	Type          BackgroundKind `json:"type"`
	Src           string         `json:"src"`
	Upload        *PendingUpload `json:"upload,omitempty"`
	VideoSettings *VideoSettings `json:"videoSettings,omitempty"`
}

func (b Background) MarshalJSON() ([]byte, error) {
	src, upload := encodeSource(b.Source)
	return json.Marshal(backgroundJSON{
		Type:          b.Kind,
		Src:           src,
		Upload:        upload,
		VideoSettings: b.VideoSettings,
	})
}

func (b *Background) UnmarshalJSON(data []byte) error {
	var raw backgroundJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == "" {
		raw.Type = BackgroundImage
	}
	if raw.Type != BackgroundImage && raw.Type != BackgroundVideo {
		return fmt.Errorf("unknown background type %q", raw.Type)
	}

	*b = Background{
		Kind:          raw.Type,
		Source:        decodeSource(raw.Src, raw.Upload),
		VideoSettings: raw.VideoSettings,
	}
	return nil
}

// ============================================================
// Background music
// ============================================================

type musicJSON struct {
	Src         string         `json:"src"`
	Upload      *PendingUpload `json:"upload,omitempty"`
	Volume      float64        `json:"volume"`
	Loop        bool           `json:"loop"`
	Autoplay    bool           `json:"autoplay"`
	StopOnVideo bool           `json:"stopOnVideo"`
	DuckOnVideo bool           `json:"duckOnVideo"`
	DuckVolume  float64        `json:"duckVolume"`
}

func (m BackgroundMusic) MarshalJSON() ([]byte, error) {
	src, upload := encodeSource(m.Source)
	return json.Marshal(musicJSON{
		Src:         src,
		Upload:      upload,
		Volume:      m.Volume,
		Loop:        m.Loop,
		Autoplay:    m.Autoplay,
		StopOnVideo: m.StopOnVideo,
		DuckOnVideo: m.DuckOnVideo,
		DuckVolume:  m.DuckVolume,
	})
}

func (m *BackgroundMusic) UnmarshalJSON(data []byte) error {
	var raw musicJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = BackgroundMusic{
		Source:      decodeSource(raw.Src, raw.Upload),
		Volume:      raw.Volume,
		Loop:        raw.Loop,
		Autoplay:    raw.Autoplay,
		StopOnVideo: raw.StopOnVideo,
		DuckOnVideo: raw.DuckOnVideo,
		DuckVolume:  raw.DuckVolume,
	}
	return nil
}

// ============================================================
// Page
// ============================================================

type pageAlias Page

// MarshalJSON always emits "hotspots" as an array; the runtime iterates it.
func (p Page) MarshalJSON() ([]byte, error) {
	out := pageAlias(p)
	if out.Hotspots == nil {
		out.Hotspots = []Hotspot{}
	}
	return json.Marshal(out)
}

// ============================================================
// Document
// ============================================================

// ParseProject decodes and validates a project document.
func ParseProject(data []byte) (Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("decode project: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// EncodeProject renders the document in its saved form.
func EncodeProject(p Project) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return data, nil
}

// Validate checks the structural rules a loaded document must satisfy.
func (p *Project) Validate() error {
	if len(p.Pages) == 0 {
		return fmt.Errorf("project must have at least one page")
	}

	pageIDs := make(map[string]struct{})
	hotspotIDs := make(map[string]struct{})
	for _, page := range p.Pages {
		if page.ID == "" {
			return fmt.Errorf("page id required")
		}
		if !page.Type.Valid() {
			return fmt.Errorf("page %s: unknown type %q", page.ID, page.Type)
		}
		if _, dup := pageIDs[page.ID]; dup {
			return fmt.Errorf("duplicate page id %q", page.ID)
		}
		pageIDs[page.ID] = struct{}{}

		for _, h := range page.Hotspots {
			if h.ID == "" {
				return fmt.Errorf("page %s: hotspot id required", page.ID)
			}
			if _, dup := hotspotIDs[h.ID]; dup {
				return fmt.Errorf("duplicate hotspot id %q", h.ID)
			}
			hotspotIDs[h.ID] = struct{}{}
		}
	}

	switch p.Settings.ConfirmationMode {
	case ConfirmWhatsApp, ConfirmForm:
	case "":
		p.Settings.ConfirmationMode = ConfirmWhatsApp
	default:
		return fmt.Errorf("unknown confirmation mode %q", p.Settings.ConfirmationMode)
	}
	return nil
}

func encodeSource(s Source) (string, *PendingUpload) {
	switch v := s.(type) {
	case PendingUpload:
		return "", &v
	case Resolved:
		return v.URL, nil
	default:
		return "", nil
	}
}

func decodeSource(src string, upload *PendingUpload) Source {
	if upload != nil && upload.ID != "" {
		return *upload
	}
	return Resolved{URL: src}
}
