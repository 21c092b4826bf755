package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"dinoplay/models"
	"dinoplay/utils"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackFile struct {
	Videos []models.Video `yaml:"videos"`
}

// LoadFallbackVideos parses the embedded fallback dataset
func LoadFallbackVideos() ([]models.Video, error) {
	return parseFallback(fallbackYAML)
}

func parseFallback(data []byte) ([]models.Video, error) {
	var file fallbackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse fallback videos: %w", err)
	}
	seen := make(map[string]bool, len(file.Videos))
	for i, v := range file.Videos {
		if v.ID == "" {
			return nil, fmt.Errorf("fallback video %q has no id", v.Title)
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate fallback video id %q", v.ID)
		}
		if v.Duration < 0 {
			return nil, fmt.Errorf("fallback video %q has negative duration", v.ID)
		}
		seen[v.ID] = true
		file.Videos[i].ViewsLabel = utils.FormatViews(v.Views)
	}
	return file.Videos, nil
}
