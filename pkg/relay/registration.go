package relay

import (
	"strings"
	"time"
)

// registerPrefix marks a registration message. The remainder of the content
// is a pipe-separated record whose first field is the username.
const registerPrefix = "REGISTER "

// Registration is a matched registration record from a channel scan.
type Registration struct {
	MessageID string
	ChannelID string
	Raw       string
	Timestamp string
}

// FindRegistration scans messages in the order given (upstream's return
// order) for a registration record matching username. The first match wins;
// upstream returns newest-first, so in practice this prefers the most recent
// registration, but no chronological guarantee is made.
//
// The scan is a linear prefix match bounded by the fetched message count; it
// never paginates further upstream.
func FindRegistration(msgs []Message, username string, now func() time.Time) (Registration, bool) {
	for _, m := range msgs {
		rest, ok := strings.CutPrefix(m.Content, registerPrefix)
		if !ok {
			continue
		}

		fields := strings.Split(rest, "|")
		if fields[0] != username {
			continue
		}

		return Registration{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			Raw:       m.Content,
			Timestamp: defaultTimestamp(m.Timestamp, now),
		}, true
	}

	return Registration{}, false
}
