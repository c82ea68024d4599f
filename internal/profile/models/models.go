// Package models defines the profile records.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Profile holds everything a member shares beyond their credentials. All
// pointer fields are optional; a fresh profile is all-nil except the flags.
type Profile struct {
	UserID         uuid.UUID
	DisplayName    string
	BirthUTC       *time.Time
	BirthTimeKnown bool
	BirthPlaceName string
	BirthLat       *float64
	BirthLon       *float64
	BirthZone      string
	LivePlaceName  string
	LiveLat        *float64
	LiveLon        *float64
	LiveZone       string
	LangPrimary    string
	LangSecondary  string
	Languages      []string
	NotifyEmail    bool
	NotifyBrowser  bool
	UpdatedAt      time.Time
}

// SpokenLanguages folds the primary/secondary fields into the language list,
// deduplicated and lowercased. Match discovery intersects these sets.
func (p *Profile) SpokenLanguages() []string {
	seen := make(map[string]struct{}, len(p.Languages)+2)
	out := make([]string, 0, len(p.Languages)+2)
	add := func(lang string) {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			return
		}
		if _, ok := seen[lang]; ok {
			return
		}
		seen[lang] = struct{}{}
		out = append(out, lang)
	}
	add(p.LangPrimary)
	add(p.LangSecondary)
	for _, lang := range p.Languages {
		add(lang)
	}
	return out
}

// Place is a cached geocoding result keyed by the display name the member
// typed ("Vienna, Austria").
type Place struct {
	Name   string
	Lat    float64
	Lon    float64
	Zone   string
	Source string
}
