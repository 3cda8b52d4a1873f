// This file defines the core data structures (models) for the catalog.
// An Entry combines the metadata sourced from VNDB with the operator's own annotations.

package models

import "time"

// Entry represents a single tracked visual novel.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	VNDB      Metadata  `json:"vndb"`
	User      UserData  `json:"user"`
}

// Metadata is the normalized record returned by the metadata provider.
type Metadata struct {
	Title         string   `json:"title"`
	TitleJa       string   `json:"titleJa"`
	TitleCn       string   `json:"titleCn"`
	Image         string   `json:"image"`
	ImageNsfw     bool     `json:"imageNsfw"`
	Rating        float64  `json:"rating"` // 0-10
	Length        string   `json:"length"`
	LengthMinutes int      `json:"lengthMinutes"`
	Developers    []string `json:"developers"`
	Tags          []string `json:"tags"` // relevance ordered, at most 10
	AllAge        bool     `json:"allAge"`
}

// UserData holds the fields owned by the operator.
type UserData struct {
	TitleCn         string   `json:"titleCn"`
	PersonalRating  float64  `json:"personalRating"` // 0-10, 0 means unrated
	PlayTime        string   `json:"playTime"`
	PlayTimeMinutes int      `json:"playTimeMinutes"`
	Review          string   `json:"review"`
	StartDate       *string  `json:"startDate"`
	FinishDate      *string  `json:"finishDate"`
	Tags            []string `json:"tags"`
}

// Summary projects the subset of an Entry kept in the aggregated list.
func (e *Entry) Summary() Summary {
	titleJa := e.VNDB.TitleJa
	if titleJa == "" {
		titleJa = e.VNDB.Title
	}
	titleCn := e.User.TitleCn
	if titleCn == "" {
		titleCn = e.VNDB.TitleCn
	}
	developers := e.VNDB.Developers
	if developers == nil {
		developers = []string{}
	}
	return Summary{
		ID:             e.ID,
		Title:          e.VNDB.Title,
		TitleJa:        titleJa,
		TitleCn:        titleCn,
		Image:          e.VNDB.Image,
		Rating:         e.VNDB.Rating,
		PersonalRating: e.User.PersonalRating,
		Developers:     developers,
		AllAge:         e.VNDB.AllAge,
		CreatedAt:      e.CreatedAt,
	}
}
