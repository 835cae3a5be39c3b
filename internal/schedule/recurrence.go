package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Template describes recurring ice time, e.g. every Monday and Wednesday
// 18:00-21:00 split into 90 minute practice slots.
type Template struct {
	Name  string   `yaml:"name" json:"name"`
	RRule string   `yaml:"rrule" json:"rrule"`
	Start string   `yaml:"start" json:"start"`
	End   string   `yaml:"end" json:"end"`
	Type  SlotType `yaml:"type" json:"type"`
	Rink  string   `yaml:"rink" json:"rink,omitempty"`
	// SlotMinutes chunks the block into consecutive slots; zero keeps it whole.
	SlotMinutes int `yaml:"slot_minutes" json:"slot_minutes,omitempty"`
	// Anchor is the yyyy-mm-dd DTSTART for rules with INTERVAL, COUNT or UNTIL.
	// Empty anchors the rule at the start of each expanded week.
	Anchor string `yaml:"anchor" json:"anchor,omitempty"`
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	if _, err := t.option(time.Time{}); err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	start, err := ParseClock(t.Start)
	if err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	end, err := ParseClock(t.End)
	if err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	if end <= start {
		return fmt.Errorf("template %s: end must be after start", t.Name)
	}
	if _, err := ParseSlotType(string(t.Type)); err != nil {
		return fmt.Errorf("template %s: %w", t.Name, err)
	}
	if t.SlotMinutes < 0 {
		return fmt.Errorf("template %s: slot_minutes must not be negative", t.Name)
	}
	if t.Anchor != "" {
		if _, err := ParseDate(t.Anchor); err != nil {
			return fmt.Errorf("template %s: invalid anchor %q", t.Name, t.Anchor)
		}
	}
	return nil
}

func (t Template) option(dtstart time.Time) (*rrule.ROption, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(t.RRule), "RRULE:")
	if raw == "" {
		return nil, fmt.Errorf("rrule is required")
	}
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = dtstart
	return opt, nil
}

// Expand materializes the template's slots that fall inside week.
// Slot ids are deterministic so repeated expansion is idempotent.
func (t Template) Expand(week Week) ([]IceSlot, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	dtstart := week.Start
	if t.Anchor != "" {
		dtstart, _ = ParseDate(t.Anchor)
	}
	opt, err := t.option(dtstart)
	if err != nil {
		return nil, err
	}
	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", t.Name, err)
	}

	startTOD, _ := ParseClock(t.Start)
	endTOD, _ := ParseClock(t.End)
	slotLen := endTOD - startTOD
	if t.SlotMinutes > 0 {
		slotLen = time.Duration(t.SlotMinutes) * time.Minute
	}

	var out []IceSlot
	for _, day := range rule.Between(week.Start, week.End(), true) {
		date := FormatDate(day)
		// chunk the block, dropping a trailing remainder shorter than slotLen
		for s := startTOD; s+slotLen <= endTOD; s += slotLen {
			out = append(out, IceSlot{
				ID:        fmt.Sprintf("tpl-%s-%s-%s", Slug(t.Name), date, strings.ReplaceAll(FormatClock(s), ":", "")),
				Date:      date,
				StartTime: FormatClock(s),
				EndTime:   FormatClock(s + slotLen),
				Type:      t.Type,
				Rink:      t.Rink,
				Source:    SourceTemplate,
			})
		}
	}
	return out, nil
}

// ExpandTemplates expands every template for week, in template order.
func ExpandTemplates(templates []Template, week Week) ([]IceSlot, error) {
	var out []IceSlot
	for _, t := range templates {
		slots, err := t.Expand(week)
		if err != nil {
			return nil, err
		}
		out = append(out, slots...)
	}
	return out, nil
}

// Slug lowercases s and joins its alphanumeric runs with dashes, for use in ids.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
