package models

import "time"

const (
	TagsModeVNDB   = "vndb"
	TagsModeManual = "manual"
)

// Settings is the process-wide configuration stored next to the catalog.
type Settings struct {
	VNDBAPIToken      string     `json:"vndbApiToken"`
	AdminPasswordHash string     `json:"adminPasswordHash"`
	JWTSecret         string     `json:"jwtSecret"`
	LastIndexTime     *time.Time `json:"lastIndexTime"`
	TagsMode          string     `json:"tagsMode"`
	TranslateTags     bool       `json:"translateTags"`
	TranslationURL    string     `json:"translationUrl"`
}

// DefaultSettings returns the settings used before anything was saved.
func DefaultSettings() *Settings {
	return &Settings{
		TagsMode:      TagsModeVNDB,
		TranslateTags: true,
	}
}
