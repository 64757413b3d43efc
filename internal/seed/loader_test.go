package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/email-agent/tests/testutil"
)

const sampleSeed = `[
  {
    "id": "email_001",
    "sender": "Alice Chen",
    "subject": "Q3 planning review",
    "body": "Please review the attached plan by Friday.",
    "timestamp": "2026-08-20T09:15:00",
    "read": false
  },
  {
    "id": "email_002",
    "sender": "Weekly Digest",
    "subject": "Your weekly digest",
    "body": "Top stories this week.",
    "timestamp": "2026-08-21T07:00:00",
    "read": true
  }
]`

func TestParse(t *testing.T) {
	emails, err := Parse([]byte(sampleSeed))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(emails))
	}
	if emails[0].ID != "email_001" || emails[0].Read {
		t.Errorf("first email = %+v", emails[0])
	}
	if emails[1].Timestamp != "2026-08-21T07:00:00" {
		t.Errorf("timestamp = %q", emails[1].Timestamp)
	}
}

func TestParseRejectsMissingID(t *testing.T) {
	_, err := Parse([]byte(`[{"sender": "x", "subject": "y"}]`))
	if err == nil {
		t.Fatal("expected an error for an entry without an id")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"not": "an array"}`))
	if err == nil {
		t.Fatal("expected an error for non-array input")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	if err := os.WriteFile(path, []byte(sampleSeed), 0o644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}

	emails, err := LoadFile(path)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if len(emails) != 2 {
		t.Errorf("expected 2 emails, got %d", len(emails))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIngestReportsOnlyNewRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	emails, err := Parse([]byte(sampleSeed))
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}

	count, err := Ingest(ctx, s, emails)
	if err != nil {
		t.Fatalf("ingesting: %v", err)
	}
	if count != 2 {
		t.Errorf("first ingest count = %d, want 2", count)
	}

	count, err = Ingest(ctx, s, emails)
	if err != nil {
		t.Fatalf("re-ingesting: %v", err)
	}
	if count != 0 {
		t.Errorf("second ingest count = %d, want 0", count)
	}
}
