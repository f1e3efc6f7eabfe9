package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
)

// Message renders the chat text for an acknowledged alert. The opening time
// is shown in loc using the dashboard layout, or verbatim when the upstream
// timestamp could not be parsed.
func Message(a types.Alert, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("🚨 Alert acknowledged!\n\n")
	fmt.Fprintf(&b, "*Code:* %s\n", a.Code)
	fmt.Fprintf(&b, "*Team:* %s\n", a.Team)
	fmt.Fprintf(&b, "*Summary:* %s\n", a.Summary)
	fmt.Fprintf(&b, "*Severity:* %s\n", strings.ToUpper(string(a.Severity)))
	fmt.Fprintf(&b, "*Opened:* %s", a.FormatOpened(loc))
	return b.String()
}
