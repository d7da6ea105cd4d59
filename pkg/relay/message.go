// Package relay contains the response-normalization core of the proxy:
// defensive parsing of upstream message payloads, the registration scan, and
// the JSON response helpers shared by all handlers.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message is the upstream message representation. The upstream is an
// uncontrolled third party, so every field is optional and defaulted during
// normalization rather than trusted.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Content     string       `json:"content"`
	Timestamp   string       `json:"timestamp"`
	Author      *Author      `json:"author"`
	Attachments []Attachment `json:"attachments"`
}

// Author is the upstream message author.
type Author struct {
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// Attachment is an upstream file attachment.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// NormalizedMessage is the minimal public-facing message shape.
type NormalizedMessage struct {
	ID          string                 `json:"id"`
	Content     string                 `json:"content"`
	Timestamp   string                 `json:"timestamp"`
	AuthorName  string                 `json:"author_name"`
	Attachments []NormalizedAttachment `json:"attachments"`
}

// NormalizedAttachment is the public-facing attachment shape.
type NormalizedAttachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ParseMessages decodes a raw upstream response body into messages.
func ParseMessages(raw []byte) ([]Message, error) {
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse upstream messages: %w", err)
	}
	return msgs, nil
}

// Normalize converts upstream messages to the public shape, preserving the
// order upstream returned (newest-first); no re-sorting. Normalization is a
// pure function of its input plus the injected clock, so re-applying it to
// the same raw objects yields identical output.
//
// Defaulting rules:
//   - timestamp: current time (RFC 3339) when absent
//   - author_name: "username#discriminator" when the discriminator is present
//     and not zero-like ("0", "0000"); bare username otherwise; "Unknown"
//     when the author is absent
//   - attachment filename defaults to "" and size to 0
func Normalize(msgs []Message, now func() time.Time) []NormalizedMessage {
	out := make([]NormalizedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NormalizedMessage{
			ID:          m.ID,
			Content:     m.Content,
			Timestamp:   defaultTimestamp(m.Timestamp, now),
			AuthorName:  authorName(m.Author),
			Attachments: normalizeAttachments(m.Attachments),
		})
	}
	return out
}

// NormalizeRaw parses a raw upstream body and normalizes it in one step.
func NormalizeRaw(raw []byte, now func() time.Time) ([]NormalizedMessage, error) {
	msgs, err := ParseMessages(raw)
	if err != nil {
		return nil, err
	}
	return Normalize(msgs, now), nil
}

// defaultTimestamp returns ts, or the current time formatted as RFC 3339
// when ts is empty.
func defaultTimestamp(ts string, now func() time.Time) string {
	if ts != "" {
		return ts
	}
	return now().UTC().Format(time.RFC3339)
}

// authorName derives the public author name.
func authorName(a *Author) string {
	if a == nil || a.Username == "" {
		return "Unknown"
	}
	if zeroLikeDiscriminator(a.Discriminator) {
		return a.Username
	}
	return a.Username + "#" + a.Discriminator
}

// zeroLikeDiscriminator reports whether the discriminator should be treated
// as absent. Migrated accounts report "0" (sometimes "0000") instead of
// omitting the field.
func zeroLikeDiscriminator(d string) bool {
	return d == "" || strings.Trim(d, "0") == ""
}

// normalizeAttachments applies attachment field defaults. The zero values of
// the parsed struct already match the documented defaults; this exists to
// produce an empty (not null) slice and the public type.
func normalizeAttachments(atts []Attachment) []NormalizedAttachment {
	out := make([]NormalizedAttachment, 0, len(atts))
	for _, a := range atts {
		size := a.Size
		if size < 0 {
			size = 0
		}
		out = append(out, NormalizedAttachment{
			URL:      a.URL,
			Filename: a.Filename,
			Size:     size,
		})
	}
	return out
}
