package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/score-labs/score-backend/internal/core/domain"
)

// LoadPaceProfiles merges a YAML override file over the built-in pace table.
// An empty path returns the defaults unchanged; labels the file does not
// mention keep their built-in profile.
func LoadPaceProfiles(path string) (map[domain.Pace]domain.PaceProfile, error) {
	profiles := domain.DefaultPaceProfiles()
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pace profiles: %w", err)
	}

	var overrides map[string]domain.PaceProfile
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse pace profiles: %w", err)
	}

	for label, override := range overrides {
		pace := domain.NormalizePace(label)
		base := profiles[pace]
		if override.TheoryRatio > 0 {
			base.TheoryRatio = override.TheoryRatio
		}
		if override.PracticeRatio > 0 {
			base.PracticeRatio = override.PracticeRatio
		}
		if override.RetrievalDepth > 0 {
			base.RetrievalDepth = override.RetrievalDepth
		}
		if override.MaxTokens > 0 {
			base.MaxTokens = override.MaxTokens
		}
		if override.Description != "" {
			base.Description = override.Description
		}
		profiles[pace] = base
	}
	return profiles, nil
}
