package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS emails (
	id           TEXT PRIMARY KEY,
	sender       TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT '',
	timestamp    TEXT NOT NULL DEFAULT '',
	read_status  INTEGER NOT NULL DEFAULT 0,
	category     TEXT DEFAULT NULL,
	action_items TEXT DEFAULT NULL
);

CREATE TABLE IF NOT EXISTS prompts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt_name     TEXT UNIQUE NOT NULL,
	prompt_template TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS drafts (
	id            TEXT PRIMARY KEY,
	email_id      TEXT NOT NULL REFERENCES emails(id),
	draft_subject TEXT NOT NULL DEFAULT '',
	draft_body    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'saved',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_timestamp ON emails(timestamp);
CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category);
CREATE INDEX IF NOT EXISTS idx_drafts_email_id ON drafts(email_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// defaultPrompts seeds the prompts table on first run. INSERT OR IGNORE
// keeps later migrations from clobbering user edits.
var defaultPrompts = map[string]string{
	"categorize_email": `Role: You are an advanced email classifier.
Task: Categorize the following email into one of these categories: 'Important', 'Newsletter', 'Spam', 'To-Do', 'Project Update'.

Rules:
1. 'To-Do' must include a direct request requiring user action.
2. 'Important' is for urgent deadlines or HR matters.
3. Output ONLY the category name, nothing else.

Email Content:
Subject: {subject}
Body: {body}`,

	"extract_action_items": `Role: You are a task extractor.
Task: Extract action items and deadlines from the email.

Format: Respond strictly in JSON format: {"tasks": [{"task": "...", "deadline": "..."}]}
If no tasks, return {"tasks": []}.

Email Content:
{body}`,

	"suggest_reply": `Role: You are a helpful email assistant.
Task: Draft a polite and professional reply to this email.

Context:
- If it's a meeting request, ask for an agenda and propose 2 PM as a time.
- If it's a task, confirm receipt and estimate completion by EOD.
- Keep it concise.

Incoming Email:
{body}`,
}
