package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"icetime-service/internal/rinksync"
	"icetime-service/internal/schedule"
	"icetime-service/internal/teams"
)

// RinkConfig is the YAML file describing where ice time comes from.
//
//	templates:
//	  - name: Weeknight practice
//	    rrule: FREQ=WEEKLY;BYDAY=MO,WE
//	    start: "18:00"
//	    end: "21:00"
//	    type: practice
//	    slot_minutes: 90
//	feeds:
//	  - id: main
//	    url: https://rink.example.com/open-ice.ics
//	teams:
//	  - id: "1"
//	    name: Mighty Ducks
//	    manager_name: Gordon Bombay
//	    manager_email: gordon@mightyducks.com
type RinkConfig struct {
	Templates []schedule.Template `yaml:"templates"`
	Feeds     []rinksync.Feed     `yaml:"feeds"`
	Teams     []teams.Team        `yaml:"teams"`
}

// DefaultRinkConfig has no templates, feeds or teams.
func DefaultRinkConfig() *RinkConfig {
	return &RinkConfig{
		Templates: []schedule.Template{},
		Feeds:     []rinksync.Feed{},
		Teams:     []teams.Team{},
	}
}

// Normalize fills feed ids and names and replaces nil lists.
func (c *RinkConfig) Normalize() {
	if c.Templates == nil {
		c.Templates = []schedule.Template{}
	}
	if c.Feeds == nil {
		c.Feeds = []rinksync.Feed{}
	}
	for i := range c.Feeds {
		if c.Feeds[i].ID == "" {
			c.Feeds[i].ID = fmt.Sprintf("feed-%d", i+1)
		}
		if c.Feeds[i].Name == "" {
			c.Feeds[i].Name = c.Feeds[i].ID
		}
	}
	if c.Teams == nil {
		c.Teams = []teams.Team{}
	}
}

// Validate checks every template, feed and team.
func (c *RinkConfig) Validate() error {
	var errs []error
	for _, t := range c.Templates {
		if err := t.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	ids := make(map[string]bool)
	for _, f := range c.Feeds {
		if !strings.HasPrefix(f.URL, "http://") && !strings.HasPrefix(f.URL, "https://") {
			errs = append(errs, fmt.Errorf("feed %s: url must be http or https", f.ID))
		}
		if ids[f.ID] {
			errs = append(errs, fmt.Errorf("feed %s: duplicate id", f.ID))
		}
		ids[f.ID] = true
	}
	for _, t := range c.Teams {
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("team %q: id is required", t.Name))
			continue
		}
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("team %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

// LoadRinkConfig reads the YAML file at path. An empty path or a missing
// file yields DefaultRinkConfig.
func LoadRinkConfig(path string) (*RinkConfig, error) {
	if path == "" {
		return DefaultRinkConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultRinkConfig(), nil
		}
		return nil, err
	}

	var cfg RinkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rink config %s: %w", path, err)
	}
	return &cfg, nil
}
