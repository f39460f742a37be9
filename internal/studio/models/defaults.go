package models

// NewProject returns the starter invitation: a cover letter, an intro video
// and the hub with the RSVP, map and gift buttons.
func NewProject(name string) Project {
	video := DefaultVideoSettings()

	return Project{
		Name: name,
		Pages: []Page{
			{
				ID:   "cover",
				Name: "Screen 1: Letter",
				Type: PageCover,
				Background: Background{
					Kind:   BackgroundImage,
					Source: Resolved{URL: "https://picsum.photos/seed/cover/540/960"},
				},
				Hotspots: []Hotspot{
					{
						ID:     "hotspot_cover_1",
						Name:   "Open invitation",
						Rect:   Rect{X: 30, Y: 70, Width: 40, Height: 10},
						Action: NavigateAction{TargetPageID: "video"},
					},
				},
			},
			{
				ID:   "video",
				Name: "Screen 2: Video",
				Type: PageVideo,
				Background: Background{
					Kind:          BackgroundVideo,
					Source:        Resolved{URL: ""},
					VideoSettings: &video,
				},
				Hotspots: []Hotspot{
					{
						ID:     "hotspot_video_1",
						Name:   "Continue",
						Rect:   Rect{X: 30, Y: 80, Width: 40, Height: 10},
						Action: NavigateAction{TargetPageID: "hub"},
					},
				},
			},
			{
				ID:   "hub",
				Name: "Hub: Main",
				Type: PageHub,
				Background: Background{
					Kind:   BackgroundImage,
					Source: Resolved{URL: "https://picsum.photos/seed/hub/540/960"},
				},
				Hotspots: []Hotspot{
					{
						ID:     "hotspot_hub_1",
						Name:   "Confirm attendance",
						Rect:   Rect{X: 25, Y: 60, Width: 50, Height: 8},
						Action: RSVPAction{},
					},
					{
						ID:     "hotspot_hub_2",
						Name:   "Party location",
						Rect:   Rect{X: 25, Y: 70, Width: 50, Height: 8},
						Action: MapAction{},
					},
					{
						ID:     "hotspot_hub_3",
						Name:   "Gift suggestions",
						Rect:   Rect{X: 25, Y: 80, Width: 50, Height: 8},
						Action: ExternalLinkAction{URL: "", NewTab: true},
					},
				},
			},
		},
		Settings: DefaultSettings(),
	}
}

func DefaultSettings() GlobalSettings {
	return GlobalSettings{
		MapURL:           "",
		ConfirmationMode: ConfirmWhatsApp,
		WhatsApp: WhatsApp{
			Number:  "5511999999999",
			Message: "Hello! I confirm my attendance at the event.",
		},
		FormURL: "",
		BackgroundMusic: BackgroundMusic{
			Source:     Resolved{URL: ""},
			Volume:     0.5,
			Loop:       true,
			Autoplay:   true,
			DuckVolume: 0.2,
		},
	}
}
