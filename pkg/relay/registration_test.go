package relay

import "testing"

func TestFindRegistration(t *testing.T) {
	t.Run("finds a matching registration", func(t *testing.T) {
		msgs := []Message{
			{ID: "1", ChannelID: "c1", Content: "REGISTER alice|salt1|hash1|100", Timestamp: "2024-01-01T00:00:00Z"},
			{ID: "2", ChannelID: "c1", Content: "hello"},
			{ID: "3", ChannelID: "c1", Content: "REGISTER bob|salt2|hash2|200"},
		}

		reg, found := FindRegistration(msgs, "alice", fixedNow)
		if !found {
			t.Fatal("FindRegistration() should find alice")
		}
		if reg.MessageID != "1" {
			t.Errorf("MessageID = %q, want 1", reg.MessageID)
		}
		if reg.Raw != "REGISTER alice|salt1|hash1|100" {
			t.Errorf("Raw = %q, want full content", reg.Raw)
		}
		if reg.Timestamp != "2024-01-01T00:00:00Z" {
			t.Errorf("Timestamp = %q", reg.Timestamp)
		}
	})

	t.Run("first match wins in scan order", func(t *testing.T) {
		msgs := []Message{
			{ID: "newer", Content: "REGISTER alice|salt2|hash2|200"},
			{ID: "older", Content: "REGISTER alice|salt1|hash1|100"},
		}

		reg, found := FindRegistration(msgs, "alice", fixedNow)
		if !found || reg.MessageID != "newer" {
			t.Errorf("MessageID = %q, want first-encountered match", reg.MessageID)
		}
	})

	t.Run("no match returns not found", func(t *testing.T) {
		msgs := []Message{
			{Content: "REGISTER bob|salt|hash|1"},
			{Content: "just chatting"},
		}

		if _, found := FindRegistration(msgs, "alice", fixedNow); found {
			t.Error("FindRegistration() should not match bob's registration")
		}
	})

	t.Run("username must match the first field exactly", func(t *testing.T) {
		msgs := []Message{
			{Content: "REGISTER alicette|salt|hash|1"},
		}

		if _, found := FindRegistration(msgs, "alice", fixedNow); found {
			t.Error("prefix of another username should not match")
		}
	})

	t.Run("prefix must be exact", func(t *testing.T) {
		msgs := []Message{
			{Content: "register alice|salt|hash|1"},
			{Content: " REGISTER alice|salt|hash|1"},
		}

		if _, found := FindRegistration(msgs, "alice", fixedNow); found {
			t.Error("only the literal REGISTER prefix should match")
		}
	})

	t.Run("bare registration without pipes", func(t *testing.T) {
		msgs := []Message{
			{ID: "1", Content: "REGISTER alice"},
		}

		reg, found := FindRegistration(msgs, "alice", fixedNow)
		if !found || reg.MessageID != "1" {
			t.Errorf("single-field registration should match, got found=%v", found)
		}
	})

	t.Run("missing timestamp falls back to current time", func(t *testing.T) {
		msgs := []Message{
			{ID: "1", Content: "REGISTER alice|x"},
		}

		reg, _ := FindRegistration(msgs, "alice", fixedNow)
		if reg.Timestamp != "2025-06-01T12:00:00Z" {
			t.Errorf("Timestamp = %q, want fixed now", reg.Timestamp)
		}
	})

	t.Run("empty message list", func(t *testing.T) {
		if _, found := FindRegistration(nil, "alice", fixedNow); found {
			t.Error("empty list should not match")
		}
	})
}
