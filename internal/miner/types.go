// Package miner builds the contributor-issue dataset: it maps merged pull
// requests to the issues they close, enriches both sides from the GitHub API,
// and flattens the result into cacheable records and CSV rows.
package miner

// Delimiters control how multi-valued fields are flattened into single CSV
// cells. PatchNewline replaces newlines inside diff patches so a patch
// survives as one cell value.
type Delimiters struct {
	Comment      string `yaml:"comment_delimiter"`
	FileChange   string `yaml:"file_change_delimiter"`
	CommitMsg    string `yaml:"commit_msg_delimiter"`
	PatchNewline string `yaml:"patch_newline_delimiter"`
}

// DefaultDelimiters returns the delimiters used by the original dataset.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Comment:      " || ",
		FileChange:   " || ",
		CommitMsg:    " || ",
		PatchNewline: "|;|",
	}
}

// FileChange describes one file touched by a pull request, with the diff
// patch newline-flattened for CSV compatibility.
type FileChange struct {
	Filename  string `json:"filename"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
}

// LinkedPR is a merged pull request that references an issue.
type LinkedPR struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	MergedAt       string `json:"merged_at"`
	MergedBy       string `json:"merged_by"`
	FileChanges    string `json:"file_changes"`
	CommitMessages string `json:"commit_messages"`
}

// IssueRecord is the issue-centric record the miner produces: one issue, its
// metadata, the merged PRs linked to it, and the contributors who resolved it.
type IssueRecord struct {
	IssueNumber    int        `json:"issue_number"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Comments       string     `json:"comments"`
	State          string     `json:"state"`
	CreatedAt      string     `json:"created_at"`
	ClosedAt       string     `json:"closed_at"`
	OpenedBy       string     `json:"opened_by"`
	Labels         []string   `json:"labels"`
	LinkedPRs      []LinkedPR `json:"linked_prs"`
	Solvers        []string   `json:"solvers"`
	FileChanges    []string   `json:"file_changes"`
	CommitMessages string     `json:"commit_messages"`
}

// RepoData maps issue numbers (as strings, for JSON cache parity) to records.
type RepoData map[string]*IssueRecord
