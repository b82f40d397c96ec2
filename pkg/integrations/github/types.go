package github

import "time"

// Release is a published release on the hosting platform.
type Release struct {
	ID          int64     `json:"id"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}

// Tag is a lightweight git tag reference.
type Tag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

// Commit carries the subset of the commit payload the collectors need:
// the committer date used to place tags on the timeline.
type Commit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
		Message string `json:"message"`
	} `json:"commit"`
}

// Comparison is the result of comparing two refs.
type Comparison struct {
	HTMLURL      string     `json:"html_url"`
	TotalCommits int        `json:"total_commits"`
	AheadBy      int        `json:"ahead_by"`
	BehindBy     int        `json:"behind_by"`
	Files        []PullFile `json:"files"`
}

// Label is an issue/PR label.
type Label struct {
	Name string `json:"name"`
}

// Reactions aggregates reaction counts on an issue or comment.
type Reactions struct {
	TotalCount int `json:"total_count"`
}

// User identifies the author of an issue or comment.
type User struct {
	Login string `json:"login"`
}

// Issue is an issue or pull request as returned by the issues endpoints.
// PullRequest is non-nil when the record is actually a PR.
type Issue struct {
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	State       string     `json:"state"`
	Body        string     `json:"body"`
	HTMLURL     string     `json:"html_url"`
	Comments    int        `json:"comments"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	User        User       `json:"user"`
	Labels      []Label    `json:"labels"`
	Reactions   Reactions  `json:"reactions"`
	PullRequest *PullStub  `json:"pull_request,omitempty"`
}

// PullStub marks an issue record as a pull request.
type PullStub struct {
	URL string `json:"url"`
}

// IsPull reports whether the issue record is a pull request.
func (i *Issue) IsPull() bool { return i.PullRequest != nil }

// EngagementScore is comments plus total reactions; the notability
// threshold applied by the issue collector is 3.
func (i *Issue) EngagementScore() int { return i.Comments + i.Reactions.TotalCount }

// Comment is a single issue/PR comment.
type Comment struct {
	Body      string    `json:"body"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref is one side of a pull request.
type Ref struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
}

// Pull is the full pull-request payload.
type Pull struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	State        string `json:"state"`
	Merged       bool   `json:"merged"`
	HTMLURL      string `json:"html_url"`
	Base         Ref    `json:"base"`
	Head         Ref    `json:"head"`
	Commits      int    `json:"commits"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	ChangedFiles int    `json:"changed_files"`
}

// PullFile is one changed file in a PR or comparison.
type PullFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Contents is a repository file payload; Content is base64 when
// Encoding is "base64".
type Contents struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Advisory is one entry from the platform's advisory database.
type Advisory struct {
	GHSAID      string    `json:"ghsa_id"`
	CVEID       string    `json:"cve_id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	HTMLURL     string    `json:"html_url"`
	PublishedAt time.Time `json:"published_at"`
}
