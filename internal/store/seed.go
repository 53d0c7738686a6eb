package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type coachFile struct {
	Coaches []CoachingConfig `yaml:"coaches"`
}

// ParseCoaches decodes a YAML document of the form:
//
//	coaches:
//	  - coaching_id: "42"
//	    context_prompt: You are a running coach.
//	    api_key: sk-...
//	    model: gpt-4o-mini
//	    api_provider: openai
func ParseCoaches(r io.Reader) ([]CoachingConfig, error) {
	var file coachFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode coaches file: %w", err)
	}
	for i, c := range file.Coaches {
		if strings.TrimSpace(c.CoachingID) == "" {
			return nil, fmt.Errorf("coach #%d has no coaching_id", i+1)
		}
		file.Coaches[i].ProviderID = strings.ToLower(strings.TrimSpace(c.ProviderID))
	}
	return file.Coaches, nil
}

// ImportCoachesFromFile upserts every coach found in the YAML file at path.
func ImportCoachesFromFile(ctx context.Context, s ConfigStore, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open coaches file %s: %w", path, err)
	}
	defer f.Close()

	coaches, err := ParseCoaches(f)
	if err != nil {
		return 0, err
	}
	for _, c := range coaches {
		if err := s.UpsertCoachingConfig(ctx, c); err != nil {
			return 0, fmt.Errorf("failed to import coach %s: %w", c.CoachingID, err)
		}
		log.Printf("Imported coaching config %s (provider=%q, model=%q)", c.CoachingID, c.ProviderID, c.ModelID)
	}
	return len(coaches), nil
}
