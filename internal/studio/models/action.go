package models

import (
	"encoding/json"
	"fmt"
)

// ============================================================
// Actions
// ============================================================

type ActionType string

const (
	ActionNavigate     ActionType = "navigate"
	ActionExternalLink ActionType = "externalLink"
	ActionRSVP         ActionType = "rsvp"
	ActionMap          ActionType = "map"
)

// Action is the closed set of hotspot effects. Only the types in this file
// implement it.
type Action interface {
	Type() ActionType
	isAction()
}

type NavigateAction struct {
	TargetPageID string `json:"targetPageId"`
	Invalid      bool   `json:"invalid,omitempty"`
}

type ExternalLinkAction struct {
	URL    string `json:"url"`
	NewTab bool   `json:"newTab"`
}

// RSVPAction is resolved from GlobalSettings at export time.
type RSVPAction struct{}

// MapAction is resolved from GlobalSettings.MapURL at export time.
type MapAction struct{}

func (NavigateAction) Type() ActionType     { return ActionNavigate }
func (ExternalLinkAction) Type() ActionType { return ActionExternalLink }
func (RSVPAction) Type() ActionType         { return ActionRSVP }
func (MapAction) Type() ActionType          { return ActionMap }

func (NavigateAction) isAction()     {}
func (ExternalLinkAction) isAction() {}
func (RSVPAction) isAction()         {}
func (MapAction) isAction()          {}

// SettingsDriven reports whether the action is resolved from project settings.
func SettingsDriven(a Action) bool {
	switch a.(type) {
	case RSVPAction, MapAction:
		return true
	}
	return false
}

// ============================================================
// JSON codec
// ============================================================

type taggedAction struct {
	Type ActionType `json:"type"`
}

// MarshalAction encodes an action as a union keyed by "type".
func MarshalAction(a Action) ([]byte, error) {
	switch v := a.(type) {
	case NavigateAction:
		return json.Marshal(struct {
			taggedAction
			NavigateAction
		}{taggedAction{ActionNavigate}, v})
	case ExternalLinkAction:
		return json.Marshal(struct {
			taggedAction
			ExternalLinkAction
		}{taggedAction{ActionExternalLink}, v})
	case RSVPAction:
		return json.Marshal(taggedAction{ActionRSVP})
	case MapAction:
		return json.Marshal(taggedAction{ActionMap})
	case nil:
		return nil, fmt.Errorf("action is nil")
	default:
		return nil, fmt.Errorf("unknown action %T", a)
	}
}

// UnmarshalAction decodes a union keyed by "type".
func UnmarshalAction(data []byte) (Action, error) {
	var tag taggedAction
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch tag.Type {
	case ActionNavigate:
		var v NavigateAction
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode navigate action: %w", err)
		}
		return v, nil
	case ActionExternalLink:
		var v ExternalLinkAction
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode externalLink action: %w", err)
		}
		return v, nil
	case ActionRSVP:
		return RSVPAction{}, nil
	case ActionMap:
		return MapAction{}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", tag.Type)
	}
}
