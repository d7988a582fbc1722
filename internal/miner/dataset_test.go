package miner

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func sampleData() RepoData {
	return RepoData{
		"7": {
			IssueNumber:    7,
			Title:          "Flaky reconnect",
			Body:           "reconnect loops forever",
			Comments:       "me too || any update?",
			State:          "closed",
			CreatedAt:      "2024-01-02T10:00:00Z",
			ClosedAt:       "2024-02-01T09:30:00Z",
			OpenedBy:       "dave",
			Labels:         []string{"bug", "network"},
			LinkedPRs:      []LinkedPR{{Number: 30}, {Number: 31}},
			Solvers:        []string{"alice", "bob"},
			FileChanges:    []string{"PR#30 - net/conn.go: @@ -1 +1 @@", "PR#31 - net/retry.go: @@ -5 +9 @@"},
			CommitMessages: " || fix reconnect || add retry cap",
		},
		"3": {
			IssueNumber: 3,
			Title:       "Typo in docs",
			LinkedPRs:   []LinkedPR{{Number: 12}},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows("acme/api", sampleData(), DefaultDelimiters())

	// Issue 3 has no solvers -> one unknown row; issue 7 has two solvers.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// Issues are ordered numerically, so the unknown row comes first.
	if rows[0].IssueID != 3 || rows[0].ContributorID != UnknownContributor {
		t.Errorf("row 0 = %s/#%d, want unknown/#3", rows[0].ContributorID, rows[0].IssueID)
	}

	got := rows[1]
	if got.ContributorID != "alice" || got.IssueID != 7 {
		t.Fatalf("row 1 = %s/#%d, want alice/#7", got.ContributorID, got.IssueID)
	}
	if got.IssueLabels != "bug, network" {
		t.Errorf("labels = %q", got.IssueLabels)
	}
	if got.LinkedPRCount != 2 {
		t.Errorf("linked_pr_count = %d", got.LinkedPRCount)
	}
	if !strings.Contains(got.ModifiedSourceFiles, "PR#30 - net/conn.go") ||
		!strings.Contains(got.ModifiedSourceFiles, "PR#31 - net/retry.go") {
		t.Errorf("modified files = %q", got.ModifiedSourceFiles)
	}

	// The accumulated leading delimiter is stripped.
	if strings.HasPrefix(got.CommitMessages, " || ") {
		t.Errorf("commit messages keep leading delimiter: %q", got.CommitMessages)
	}
	if got.CommitMessages != "fix reconnect || add retry cap" {
		t.Errorf("commit messages = %q", got.CommitMessages)
	}
}

func TestWriteCSVSchema(t *testing.T) {
	var buf bytes.Buffer
	rows := Rows("acme/api", sampleData(), DefaultDelimiters())

	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}

	if !reflect.DeepEqual(records[0], CSVHeader) {
		t.Errorf("header = %v", records[0])
	}
	if len(records) != len(rows)+1 {
		t.Errorf("expected %d records, got %d", len(rows)+1, len(records))
	}
	for i, rec := range records[1:] {
		if len(rec) != len(CSVHeader) {
			t.Errorf("record %d has %d fields, want %d", i, len(rec), len(CSVHeader))
		}
	}

	// Spot-check a full data row.
	alice := records[2]
	if alice[0] != "acme/api" || alice[1] != "alice" || alice[2] != "7" {
		t.Errorf("alice row = %v", alice)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	rows := Rows("acme/api", sampleData(), DefaultDelimiters())

	if err := WriteJSON(&buf, rows); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var decoded []Row
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(rows) {
		t.Errorf("expected %d rows, got %d", len(rows), len(decoded))
	}
	if decoded[1].ContributorID != "alice" {
		t.Errorf("row 1 contributor = %q", decoded[1].ContributorID)
	}
}

func TestFormatFileChanges(t *testing.T) {
	changes := []FileChange{
		{Filename: "a.go", Patch: "@@ -1 +1 @@|;|-old|;|+new"},
		{Filename: "b.go", Patch: ""},
	}

	got := FormatFileChanges(55, changes, DefaultDelimiters())
	want := "PR#55 - a.go: @@ -1 +1 @@|;|-old|;|+new || PR#55 - b.go: "
	if got != want {
		t.Errorf("FormatFileChanges = %q, want %q", got, want)
	}
}
