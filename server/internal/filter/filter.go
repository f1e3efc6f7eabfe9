package filter

import (
	"net/url"
	"strings"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
)

// All is the sentinel value meaning "no constraint" for enum fields.
const All = "all"

// Tristate is a three-valued boolean constraint.
type Tristate int

const (
	Any Tristate = iota
	Yes
	No
)

// ParseTristate maps the values the dashboard sends for the acknowledged
// filter. Anything unrecognised means Any.
func ParseTristate(s string) Tristate {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "sim", "1":
		return Yes
	case "false", "no", "nao", "não", "0":
		return No
	default:
		return Any
	}
}

// Spec is a set of optional predicates over alert fields. The zero value
// matches every alert.
type Spec struct {
	Code     string // case-insensitive substring
	Summary  string // case-insensitive substring
	Team     string // case-insensitive equality; "" or All means any
	Status   string // exact; "" or All means any
	Severity string // exact; "" or All means any

	Acknowledged Tristate

	// From is inclusive and To exclusive. Alerts without a parsed opening
	// timestamp are never excluded by these bounds.
	From *time.Time
	To   *time.Time
}

// Matches reports whether a satisfies every constraint in s.
func (s Spec) Matches(a types.Alert) bool {
	if !containsFold(a.Code, s.Code) {
		return false
	}
	if !containsFold(a.Summary, s.Summary) {
		return false
	}
	if isSet(s.Team) && !strings.EqualFold(a.Team, s.Team) {
		return false
	}
	if isSet(s.Status) && string(a.Status) != s.Status {
		return false
	}
	if isSet(s.Severity) && string(a.Severity) != s.Severity {
		return false
	}
	switch s.Acknowledged {
	case Yes:
		if !a.Acknowledged {
			return false
		}
	case No:
		if a.Acknowledged {
			return false
		}
	}
	if a.OpenedAt != nil {
		if s.From != nil && a.OpenedAt.Before(*s.From) {
			return false
		}
		if s.To != nil && !a.OpenedAt.Before(*s.To) {
			return false
		}
	}
	return true
}

// IsEmpty reports whether s places no constraint at all.
func (s Spec) IsEmpty() bool {
	return s.Code == "" && s.Summary == "" &&
		!isSet(s.Team) && !isSet(s.Status) && !isSet(s.Severity) &&
		s.Acknowledged == Any && s.From == nil && s.To == nil
}

// Apply returns the alerts matching s, in input order.
func Apply(alerts []types.Alert, s Spec) []types.Alert {
	out := make([]types.Alert, 0, len(alerts))
	for _, a := range alerts {
		if s.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}

// keyAliases maps every accepted query parameter name to its canonical field.
// The Portuguese names are the ones the original dashboard used.
var keyAliases = map[string]string{
	"code":          "code",
	"alerta":        "code",
	"team":          "team",
	"grupoexecutor": "team",
	"status":        "status",
	"summary":       "summary",
	"sumario":       "summary",
	"severity":      "severity",
	"severidade":    "severity",
	"acknowledged":  "acknowledged",
	"acionado":      "acknowledged",
	"from":          "from",
	"to":            "to",
}

// FromValues builds a Spec from URL query parameters. Unknown keys and
// unparsable dates are ignored.
func FromValues(v url.Values) Spec {
	var s Spec
	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		field, ok := keyAliases[strings.ToLower(key)]
		if !ok {
			continue
		}
		val := strings.TrimSpace(vals[0])
		switch field {
		case "code":
			s.Code = val
		case "summary":
			s.Summary = val
		case "team":
			s.Team = val
		case "status":
			s.Status = normalizeStatus(val)
		case "severity":
			s.Severity = normalizeSeverity(val)
		case "acknowledged":
			s.Acknowledged = ParseTristate(val)
		case "from":
			if t, _, ok := parseBound(val); ok {
				s.From = &t
			}
		case "to":
			if t, dateOnly, ok := parseBound(val); ok {
				if dateOnly {
					t = t.AddDate(0, 0, 1)
				}
				s.To = &t
			}
		}
	}
	return s
}

// Values is the inverse of FromValues.
func (s Spec) Values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("code", s.Code)
	set("summary", s.Summary)
	set("team", s.Team)
	set("status", s.Status)
	set("severity", s.Severity)
	switch s.Acknowledged {
	case Yes:
		v.Set("acknowledged", "true")
	case No:
		v.Set("acknowledged", "false")
	}
	if s.From != nil {
		v.Set("from", s.From.Format(time.RFC3339))
	}
	if s.To != nil {
		v.Set("to", s.To.Format(time.RFC3339))
	}
	return v
}

func isSet(v string) bool {
	return v != "" && !strings.EqualFold(v, All)
}

func containsFold(field, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(sub))
}

func normalizeStatus(v string) string {
	if st, ok := types.ParseStatus(v); ok {
		return string(st)
	}
	return v
}

func normalizeSeverity(v string) string {
	if sev, ok := types.ParseSeverity(v); ok {
		return string(sev)
	}
	return v
}

// parseBound accepts RFC3339 timestamps and bare YYYY-MM-DD dates (UTC).
func parseBound(v string) (t time.Time, dateOnly bool, ok bool) {
	if v == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
