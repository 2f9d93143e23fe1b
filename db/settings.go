package db

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"podium-server-go/models"
)

// DefaultSettings mirrors a fresh installation.
func DefaultSettings() models.Settings {
	return models.Settings{
		CycleSeconds:      10,
		ShowClubs:         true,
		VipShowPhotos:     true,
		HostessShowPhotos: true,
	}
}

// Settings loads the settings merged over the defaults. Unknown keys are
// ignored and values are coerced to the expected types.
func (s *DocumentStore) Settings() models.Settings {
	return coerceSettings(s.rawObject(DocSettings))
}

// SaveSettings merges patch over the stored settings and writes only known keys.
func (s *DocumentStore) SaveSettings(patch map[string]any) (models.Settings, error) {
	current := s.rawObject(DocSettings)
	for k, v := range patch {
		current[k] = v
	}
	merged := coerceSettings(current)
	if err := s.Save(DocSettings, merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// EnsureSettings writes the defaults when no settings document exists yet.
func (s *DocumentStore) EnsureSettings() models.Settings {
	cfg := s.Settings()
	if _, err := s.backend.Read(s.Ctx, DocSettings); err != nil {
		if err := s.Save(DocSettings, cfg); err != nil {
			s.log.Warn("could not write default settings", zap.Error(err))
		}
	}
	return cfg
}

func coerceSettings(raw map[string]any) models.Settings {
	out := DefaultSettings()
	if v, ok := raw["cycle_seconds"]; ok {
		if n, ok := models.AsInt(v); ok {
			out.CycleSeconds = n
		}
	}

	str := func(key string, dst *string) {
		if v, ok := raw[key]; ok && v != nil {
			if s, isStr := v.(string); isStr {
				*dst = s
			} else {
				*dst = fmt.Sprint(v)
			}
		}
	}
	str("competition_name", &out.CompetitionName)
	str("competition_country", &out.CompetitionCountry)
	str("competition_city", &out.CompetitionCity)
	str("date_from", &out.DateFrom)
	str("date_to", &out.DateTo)
	str("event_logo", &out.EventLogo)
	str("federation_logo", &out.FederationLogo)

	flag := func(key string, dst *bool) {
		if v, ok := raw[key]; ok {
			*dst = models.AsBool(v)
		}
	}
	flag("speaker_large_font", &out.SpeakerLargeFont)
	flag("show_club", &out.ShowClub)
	flag("show_clubs", &out.ShowClubs)
	flag("vip_show_photos", &out.VipShowPhotos)
	flag("hostess_show_photos", &out.HostessShowPhotos)
	return out
}

// rawObject loads a document as a generic object; anything else is empty.
func (s *DocumentStore) rawObject(name string) map[string]any {
	raw, _ := s.LoadRaw(name)
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
