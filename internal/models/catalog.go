package models

import "time"

// Summary is one item of the aggregated list.
type Summary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	TitleJa        string    `json:"titleJa"`
	TitleCn        string    `json:"titleCn"`
	Image          string    `json:"image"`
	Rating         float64   `json:"rating"`
	PersonalRating float64   `json:"personalRating"`
	Developers     []string  `json:"developers"`
	AllAge         bool      `json:"allAge"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Stats are computed over every entry referenced by the list.
type Stats struct {
	Total                int     `json:"total"`
	TotalPlayTimeMinutes int     `json:"totalPlayTimeMinutes"`
	AvgRating            float64 `json:"avgRating"`
	AvgPersonalRating    float64 `json:"avgPersonalRating"`
}

// Aggregate is the materialized list view. It is a derived cache; the
// per-entry records stay authoritative.
type Aggregate struct {
	Items     []Summary  `json:"items"`
	Stats     Stats      `json:"stats"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// IDs returns the entry ids referenced by the list, in list order.
func (a *Aggregate) IDs() []string {
	ids := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// ExportDocument is the portable representation of the whole catalog.
type ExportDocument struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Entries    []*Entry  `json:"entries"`
}

const (
	ImportModeMerge   = "merge"
	ImportModeReplace = "replace"
)
