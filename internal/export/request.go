package export

import (
	"fmt"
	"strings"

	"icetime-service/internal/schedule"
)

// Request selects what to export or email.
type Request struct {
	TeamID string `json:"team_id"`
	Period Period `json:"period"`
	Format Format `json:"format,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// ValidateExport requires team, period and format.
func (r Request) ValidateExport() error {
	if r.TeamID == "" || r.Period == "" || r.Format == "" {
		return schedule.Invalid(fmt.Errorf("%w: please select team, period, and format", schedule.ErrMissingSelection))
	}
	if !r.Format.Valid() {
		return schedule.Invalid(fmt.Errorf("unsupported format %q", r.Format))
	}
	return nil
}

// ValidateEmail requires team and period; format is ignored.
func (r Request) ValidateEmail() error {
	if r.TeamID == "" || r.Period == "" {
		return schedule.Invalid(fmt.Errorf("%w: please select team and period", schedule.ErrMissingSelection))
	}
	return nil
}

// FileName is the name an export of this request would be saved under.
func FileName(teamName string, p Period, f Format) string {
	name := strings.ToLower(strings.Join(strings.Fields(teamName), "-"))
	return fmt.Sprintf("%s-%s.%s", name, p, f.Extension())
}
