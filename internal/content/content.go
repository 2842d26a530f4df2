package content

import (
	"context"
	"errors"
	"strings"
)

// Required columns of any content source.
const (
	ColumnID          = "identifier"
	ColumnTitle       = "title"
	ColumnBody        = "body"
	ColumnTargetGroup = "target_group"
)

// Placeholder values for blank optional fields.
const (
	DefaultTitle       = "Untitled"
	DefaultTargetGroup = "General"
)

var (
	ErrMalformedSource = errors.New("content source missing required columns")
	ErrEmptySource     = errors.New("content source has no data rows")
	ErrExhausted       = errors.New("no content items remaining")
)

// Item is one unit of campaign material. Immutable after load.
type Item struct {
	ID          string `json:"identifier"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	TargetGroup string `json:"target_group"`
}

// Provider loads the full pool for one campaign run.
type Provider interface {
	Load(ctx context.Context) (*Pool, error)
}

func normalize(it Item) Item {
	if it.Title == "" {
		it.Title = DefaultTitle
	}
	if it.TargetGroup == "" {
		it.TargetGroup = DefaultTargetGroup
	}
	return it
}

func trimItem(it Item) Item {
	it.ID = strings.TrimSpace(it.ID)
	it.Title = strings.TrimSpace(it.Title)
	it.Body = strings.TrimSpace(it.Body)
	it.TargetGroup = strings.TrimSpace(it.TargetGroup)
	return it
}
