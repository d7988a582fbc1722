package miner

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// CSVHeader is the fixed dataset column set, in output order.
var CSVHeader = []string{
	"repo_name",
	"contributor_id",
	"issue_id",
	"issue_title",
	"issue_body",
	"issue_comments",
	"issue_state",
	"issue_created_at",
	"issue_closed_at",
	"opened_by",
	"issue_labels",
	"linked_pr_count",
	"modified_source_files",
	"commit_messages",
}

// UnknownContributor is the contributor_id used when a resolving PR has no
// attributable commit authors.
const UnknownContributor = "unknown"

// Row is one contributor-issue pair of the dataset.
type Row struct {
	RepoName            string `json:"repo_name"`
	ContributorID       string `json:"contributor_id"`
	IssueID             int    `json:"issue_id"`
	IssueTitle          string `json:"issue_title"`
	IssueBody           string `json:"issue_body"`
	IssueComments       string `json:"issue_comments"`
	IssueState          string `json:"issue_state"`
	IssueCreatedAt      string `json:"issue_created_at"`
	IssueClosedAt       string `json:"issue_closed_at"`
	OpenedBy            string `json:"opened_by"`
	IssueLabels         string `json:"issue_labels"`
	LinkedPRCount       int    `json:"linked_pr_count"`
	ModifiedSourceFiles string `json:"modified_source_files"`
	CommitMessages      string `json:"commit_messages"`
}

// Rows flattens issue-centric repo data into contributor-issue pairs, one row
// per solver per issue. Issues without attributable solvers get a single
// UnknownContributor row so the issue still appears in the dataset.
func Rows(repoFullName string, data RepoData, delims Delimiters) []Row {
	records := make([]*IssueRecord, 0, len(data))
	for _, rec := range data {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].IssueNumber < records[j].IssueNumber })

	var rows []Row
	for _, rec := range records {
		modifiedFiles := strings.Join(rec.FileChanges, delims.FileChange)
		commitMessages := strings.TrimPrefix(rec.CommitMessages, delims.CommitMsg)

		solvers := rec.Solvers
		if len(solvers) == 0 {
			solvers = []string{UnknownContributor}
		}

		for _, solver := range solvers {
			rows = append(rows, Row{
				RepoName:            repoFullName,
				ContributorID:       solver,
				IssueID:             rec.IssueNumber,
				IssueTitle:          rec.Title,
				IssueBody:           rec.Body,
				IssueComments:       rec.Comments,
				IssueState:          rec.State,
				IssueCreatedAt:      rec.CreatedAt,
				IssueClosedAt:       rec.ClosedAt,
				OpenedBy:            rec.OpenedBy,
				IssueLabels:         strings.Join(rec.Labels, ", "),
				LinkedPRCount:       len(rec.LinkedPRs),
				ModifiedSourceFiles: modifiedFiles,
				CommitMessages:      commitMessages,
			})
		}
	}

	return rows
}

// WriteCSV writes rows as CSV with the fixed header.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.RepoName,
			row.ContributorID,
			strconv.Itoa(row.IssueID),
			row.IssueTitle,
			row.IssueBody,
			row.IssueComments,
			row.IssueState,
			row.IssueCreatedAt,
			row.IssueClosedAt,
			row.OpenedBy,
			row.IssueLabels,
			strconv.Itoa(row.LinkedPRCount),
			row.ModifiedSourceFiles,
			row.CommitMessages,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s#%d: %w", row.RepoName, row.IssueID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("failed to encode dataset JSON: %w", err)
	}
	return nil
}

// FormatFileChanges renders a PR's file changes as "PR#<n> - <path>: <patch>"
// entries joined by the file change delimiter.
func FormatFileChanges(prNumber int, changes []FileChange, delims Delimiters) string {
	formatted := make([]string, 0, len(changes))
	for _, change := range changes {
		formatted = append(formatted, fmt.Sprintf("PR#%d - %s: %s", prNumber, change.Filename, change.Patch))
	}
	return strings.Join(formatted, delims.FileChange)
}
