package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLogLogger_WritesEntry(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogLogger(zerolog.New(&buf))
	meta, _ := json.Marshal(map[string]any{"month": "2024-03"})
	if err := l.Log(context.Background(), Entry{Actor: "user-1", Role: "owner", Action: "month.close", ResourceType: "month", ResourceID: "2024-03", Metadata: meta}); err != nil {
		t.Fatalf("log: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["action"] != "month.close" || line["component"] != "audit" || line["resource"] != "month/2024-03" {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["payload_digest"] != DigestJSON(meta) {
		t.Fatalf("digest not filled: %v", line["payload_digest"])
	}
	if !strings.HasPrefix(line["audit_id"].(string), "audit-") {
		t.Fatalf("unexpected id: %v", line["audit_id"])
	}
}

func TestEntry_CompleteKeepsCallerFields(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	e := Entry{ID: "given", CreatedAt: at, PayloadDigest: "d"}.complete(time.Now())
	if e.ID != "given" || e.PayloadDigest != "d" || !e.CreatedAt.Equal(at) || e.CreatedAt.Location() != time.UTC {
		t.Fatalf("unexpected completion: %+v", e)
	}
	if DigestJSON(nil) != "" {
		t.Fatalf("empty payload must have no digest")
	}
}
