package domain

import (
	"encoding/json"
	"fmt"
)

// Record is the wire/persistence envelope for one item: identifier, kind,
// bounding box, and a kind-specific payload. Persistence collaborators store
// records keyed by ID without interpreting the payload.
type Record struct {
	ID      string          `json:"id"`
	Kind    ItemKind        `json:"kind"`
	Box     BoundingBox     `json:"box"`
	Payload json.RawMessage `json:"payload"`
}

type strokePayload struct {
	Points []Point `json:"points"`
	Width  float64 `json:"width"`
	Color  string  `json:"color"`
}

type textCardPayload struct {
	Zoom        ZoomState `json:"zoom"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PixelWidth  float64   `json:"pixelWidth"`
	PixelHeight float64   `json:"pixelHeight"`
}

// EncodeItem converts an item to its persistence record.
func EncodeItem(it Item) (Record, error) {
	var payload any
	switch v := it.(type) {
	case *Stroke:
		payload = strokePayload{Points: v.Points, Width: v.Width, Color: v.Color}
	case *TextCard:
		payload = textCardPayload{
			Zoom:        v.Zoom,
			Title:       v.Title,
			Content:     v.Content,
			PixelWidth:  v.PixelWidth,
			PixelHeight: v.PixelHeight,
		}
	default:
		return Record{}, fmt.Errorf("encode item %s: unknown kind %T", it.ItemID(), it)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("encode item %s: %w", it.ItemID(), err)
	}
	return Record{ID: it.ItemID(), Kind: it.Kind(), Box: it.Bounds(), Payload: raw}, nil
}

// DecodeItem converts a persistence record back into an item.
func DecodeItem(r Record) (Item, error) {
	switch r.Kind {
	case KindStroke:
		var p strokePayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode stroke %s: %w", r.ID, err)
		}
		return &Stroke{ID: r.ID, Box: r.Box, Points: p.Points, Width: p.Width, Color: p.Color}, nil
	case KindTextCard:
		var p textCardPayload
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode textcard %s: %w", r.ID, err)
		}
		return &TextCard{
			ID:          r.ID,
			Box:         r.Box,
			Zoom:        p.Zoom,
			Title:       p.Title,
			Content:     p.Content,
			PixelWidth:  p.PixelWidth,
			PixelHeight: p.PixelHeight,
		}, nil
	default:
		return nil, fmt.Errorf("decode item %s: unknown kind %q", r.ID, r.Kind)
	}
}
