package imap

import "testing"

func TestSanitizeID(t *testing.T) {
	got := sanitizeID("<abc.123@mail.example.com>")
	if got != "_abc.123_mail.example.com_" {
		t.Errorf("got %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	html := `<div><p>Hello &amp; welcome,</p><p>See the <a href="x">plan</a>.</p></div>`
	got := stripHTML(html)
	want := "Hello & welcome,\nSee the plan."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStripHTMLCollapsesBlankRuns(t *testing.T) {
	got := stripHTML("a<br><br><br><br>b")
	if got != "a\n\nb" {
		t.Errorf("got %q", got)
	}
}

func TestExtractTextBodyFallsBackToPlainText(t *testing.T) {
	raw := []byte("just some raw text without MIME headers")
	got := extractTextBody(raw)
	if got != "just some raw text without MIME headers" {
		t.Errorf("got %q", got)
	}
}

func TestExtractTextBodyPlainPart(t *testing.T) {
	raw := []byte("From: alice@example.com\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: hi\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hello Bob.\r\n")

	got := extractTextBody(raw)
	if got != "Hello Bob." {
		t.Errorf("got %q", got)
	}
}
