package db

import (
	"encoding/json"
	"fmt"

	"podium-server-go/models"
)

// DefaultAPIConfig is the out-of-the-box sports-data API configuration.
func DefaultAPIConfig() models.APIConfig {
	return models.APIConfig{
		BaseURL:      "http://localhost:8000",
		TimeoutSec:   8,
		RefreshSec:   10,
		AutoCycle:    true,
		ExtraHeaders: map[string]string{},
	}
}

// APIConfig loads the stored configuration merged over the defaults.
func (s *DocumentStore) APIConfig() models.APIConfig {
	merged := mergeObjects(apiConfigObject(DefaultAPIConfig()), s.rawObject(DocAPIConfig))
	return apiConfigFromObject(merged)
}

// SaveAPIConfig merges patch into the current configuration and stores it.
func (s *DocumentStore) SaveAPIConfig(patch map[string]any) (models.APIConfig, error) {
	merged := mergeObjects(apiConfigObject(s.APIConfig()), patch)
	cfg := apiConfigFromObject(merged)
	if err := s.Save(DocAPIConfig, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ResetAPIConfig writes the defaults.
func (s *DocumentStore) ResetAPIConfig() (models.APIConfig, error) {
	cfg := DefaultAPIConfig()
	return cfg, s.Save(DocAPIConfig, cfg)
}

// mergeObjects copies src over dst; nested objects present on both sides are merged.
func mergeObjects(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				for sk, sv := range sub {
					cur[sk] = sv
				}
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

func apiConfigObject(cfg models.APIConfig) map[string]any {
	data, _ := json.Marshal(cfg)
	out := map[string]any{}
	_ = json.Unmarshal(data, &out)
	if out["extra_headers"] == nil {
		out["extra_headers"] = map[string]any{}
	}
	return out
}

func apiConfigFromObject(obj map[string]any) models.APIConfig {
	cfg := DefaultAPIConfig()
	if v, ok := obj["base_url"]; ok {
		cfg.BaseURL = models.AsString(v)
	}
	if v, ok := obj["event_id"]; ok {
		cfg.EventID = models.AsString(v)
	}
	if v, ok := obj["api_key"]; ok {
		cfg.APIKey = models.AsString(v)
	}
	if n, ok := models.AsInt(obj["timeout_sec"]); ok {
		cfg.TimeoutSec = n
	}
	if n, ok := models.AsInt(obj["refresh_sec"]); ok {
		cfg.RefreshSec = n
	}
	if v, ok := obj["auto_cycle"]; ok {
		cfg.AutoCycle = models.AsBool(v)
	}
	if headers, ok := obj["extra_headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, isStr := v.(string); isStr {
				cfg.ExtraHeaders[k] = s
			} else if v != nil {
				cfg.ExtraHeaders[k] = fmt.Sprint(v)
			}
		}
	}
	return cfg
}
