package model

import (
	"encoding/json"
	"fmt"
)

// Photos is the photo set carried by an item: an inline thumbnail for
// list views, the index of the selected photo, and the ordered photo
// source identifiers returned by the upload endpoint.
//
// It is transmitted to clients as a structured object but persisted as a
// JSON-encoded string in a single column on the item row.
type Photos struct {
	Thumbnail *string  `json:"thumbnail"`
	Selected  *int     `json:"selected"`
	Sources   []string `json:"sources"`
}

// EncodePhotos serializes a photo set for the item's text column.
func EncodePhotos(p *Photos) (string, error) {
	if p == nil {
		return "", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding photos: %w", err)
	}
	return string(data), nil
}

// DecodePhotos parses the item's photo column. An empty column yields nil.
func DecodePhotos(raw string) (*Photos, error) {
	if raw == "" {
		return nil, nil
	}
	p := &Photos{}
	if err := json.Unmarshal([]byte(raw), p); err != nil {
		return nil, fmt.Errorf("decoding photos: %w", err)
	}
	return p, nil
}

// Item represents a single owned object.
type Item struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Code        string   `json:"code,omitempty"`
	Quantity    int      `json:"quantity"`
	Cost        *float64 `json:"cost,omitempty"`
	Photos      *Photos  `json:"photos,omitempty"`

	AdditionDate   Date  `json:"addition_date"`
	ExpirationDate *Date `json:"expiration_date,omitempty"`
	RemovalDate    *Date `json:"removal_date,omitempty"`

	IsActive     bool `json:"is_active"`
	IsBookmarked bool `json:"is_bookmarked"`
	IsSilenced   bool `json:"is_silenced"`

	OwnerID int64 `json:"-"`

	Locations []Location `json:"locations"`
	Tags      []Tag      `json:"tags"`
}
