// Package imap ingests messages from a live mailbox into the same
// insert-if-absent pipeline the JSON seed loader uses. It is optional:
// without IMAP configuration the inbox is seeded only from the file.
package imap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/email-agent/internal/model"
)

// AuthError indicates that authentication failed for the mailbox.
type AuthError struct {
	Username string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Username, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// fetchWindow is how far back a fetch looks for messages.
const fetchWindow = 7 * 24 * time.Hour

// Fetcher connects to an IMAP server and maps recent INBOX messages
// into emails ready for ingestion.
type Fetcher struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewFetcher creates an IMAP fetcher configuration.
func NewFetcher(host, port, username, password string, tls bool) *Fetcher {
	return &Fetcher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// connect establishes a connection and authenticates. The caller is
// responsible for calling Logout on the returned client.
func (f *Fetcher) connect(_ context.Context) (*imapclient.Client, error) {
	addr := f.host + ":" + f.port

	var client *imapclient.Client
	var err error

	if f.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(f.username, f.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{
			Username: f.username,
			Message:  fmt.Sprintf("authentication failed: %v", err),
		}
	}

	return client, nil
}

// FetchInbox retrieves up to limit recent INBOX messages with their
// text bodies and returns them as emails. Message-IDs become the stable
// email IDs, so re-fetching the same mailbox never produces duplicate
// rows once ingested.
func (f *Fetcher) FetchInbox(
	ctx context.Context,
	limit int,
) ([]model.Email, error) {
	client, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		Since: time.Now().Add(-fetchWindow),
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Take the most recent UIDs up to the limit.
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	uidSet := imap.UIDSetNum(uids...)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	var emails []model.Email
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		email := emailFromBuffer(buf, bodySection)
		emails = append(emails, email)
	}

	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("fetching messages: %w", err)
	}

	return emails, nil
}

// emailFromBuffer maps a fetched message to the email shape ingestion
// expects.
func emailFromBuffer(
	buf *imapclient.FetchMessageBuffer,
	bodySection *imap.FetchItemBodySection,
) model.Email {
	email := model.Email{
		ID: fmt.Sprintf("imap-uid-%d", buf.UID),
	}

	if buf.Envelope != nil {
		env := buf.Envelope
		email.Subject = env.Subject
		email.Timestamp = env.Date.UTC().Format(time.RFC3339)

		if env.MessageID != "" {
			email.ID = "imap-" + sanitizeID(env.MessageID)
		}
		if len(env.From) > 0 {
			from := env.From[0]
			if from.Name != "" {
				email.Sender = from.Name
			} else {
				email.Sender = from.Addr()
			}
		}
	}

	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			email.Read = true
		}
	}

	if raw := buf.FindBodySection(bodySection); raw != nil {
		email.Body = extractTextBody(raw)
	}

	return email
}

// extractTextBody parses a raw RFC 2822 message and returns its
// text/plain part, falling back to stripped HTML.
func extractTextBody(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable MIME: treat the payload as plain text.
		return strings.TrimSpace(string(raw))
	}
	defer mr.Close()

	var textBody, htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html"):
			htmlBody = string(body)
		}
	}

	if textBody == "" && htmlBody != "" {
		return stripHTML(htmlBody)
	}

	return strings.TrimSpace(textBody)
}

// sanitizeID removes or replaces characters that are not safe for use
// in an email ID.
var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "_")
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
