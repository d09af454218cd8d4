package workflow

// SubmissionRequest is the inbound payload. Immutable once decoded; it lives
// only for the duration of one HTTP request.
type SubmissionRequest struct {
	Secret        string `json:"secret"`
	Email         string `json:"email"`
	Task          string `json:"task"`
	Round         int    `json:"round"`
	Nonce         string `json:"nonce"`
	Brief         string `json:"brief"`
	EvaluationURL string `json:"evaluation_url"`
}

// Commit labels reported to the evaluator. These are workflow identifiers,
// not real commit hashes.
const (
	CommitLabelInitial  = "initial-commit"
	CommitLabelRevision = "auto-revision"
)

// NotificationPayload is what gets POSTed to the evaluation URL after a round.
type NotificationPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// Result carries the derived URLs of a completed round.
type Result struct {
	Round    int
	RepoURL  string
	PagesURL string
}
