package prcontext

import (
	"context"
	"time"
)

// File change statuses as reported by the source-control host.
const (
	FileAdded    = "added"
	FileModified = "modified"
	FileRemoved  = "removed"
	FileRenamed  = "renamed"
	FileCopied   = "copied"
	FileChanged  = "changed"
)

// Check run statuses and conclusions.
const (
	CheckQueued     = "queued"
	CheckInProgress = "in_progress"
	CheckCompleted  = "completed"

	ConclusionSuccess        = "success"
	ConclusionFailure        = "failure"
	ConclusionNeutral        = "neutral"
	ConclusionCancelled      = "cancelled"
	ConclusionSkipped        = "skipped"
	ConclusionTimedOut       = "timed_out"
	ConclusionActionRequired = "action_required"
	ConclusionStale          = "stale"
)

// Review states.
const (
	ReviewApproved         = "APPROVED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
	ReviewCommented        = "COMMENTED"
	ReviewDismissed        = "DISMISSED"
)

// Actor types.
const (
	ActorUser = "User"
	ActorBot  = "Bot"
)

// PRContext is the snapshot of a pull request at evaluation time.
type PRContext struct {
	Number  int    `json:"number" validate:"gte=0"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	BaseRef string `json:"base_ref,omitempty"`
	HeadSHA string `json:"head_sha,omitempty"`

	Author    Actor         `json:"author" validate:"required"`
	Files     []ChangedFile `json:"files" validate:"dive"`
	CheckRuns []CheckRun    `json:"check_runs" validate:"dive"`
	Approvals []Approval    `json:"approvals" validate:"dive"`
	Defaults  Defaults      `json:"defaults"`

	// Content resolves file contents that were not inlined in Files. Nil
	// means only inlined content is available.
	Content ContentSource `json:"-"`
}

// Actor is a user or bot account.
type Actor struct {
	Login string `json:"login" validate:"required"`
	Type  string `json:"type,omitempty" validate:"omitempty,oneof=User Bot Organization"`
	Name  string `json:"name,omitempty"`
}

// IsBot reports whether the host flagged the account as a bot.
func (a Actor) IsBot() bool {
	return a.Type == ActorBot
}

// ChangedFile is one file touched by the pull request.
type ChangedFile struct {
	Path         string `json:"path" validate:"required"`
	PreviousPath string `json:"previous_path,omitempty"`
	Status       string `json:"status" validate:"required,oneof=added modified removed renamed copied changed"`
	Additions    int    `json:"additions" validate:"gte=0"`
	Deletions    int    `json:"deletions" validate:"gte=0"`

	// Patch holds the unified-diff hunks for the file. Full git diff output
	// with file headers is accepted too.
	Patch string `json:"patch,omitempty"`

	// Content holds the post-change file content when the collector inlined it.
	Content *string `json:"content,omitempty"`
}

// CheckRun is a CI check run on the head commit.
type CheckRun struct {
	Name        string    `json:"name" validate:"required"`
	Status      string    `json:"status" validate:"required,oneof=queued in_progress completed"`
	Conclusion  string    `json:"conclusion,omitempty" validate:"omitempty,oneof=success failure neutral cancelled skipped timed_out action_required stale"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Approval is a submitted review.
type Approval struct {
	Reviewer    Actor     `json:"reviewer" validate:"required"`
	State       string    `json:"state" validate:"required,oneof=APPROVED CHANGES_REQUESTED COMMENTED DISMISSED"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
	CommitSHA   string    `json:"commit_sha,omitempty"`
}

// ContentSource fetches file content at the head of the pull request.
// Implementations must honor ctx cancellation.
type ContentSource interface {
	FetchContent(ctx context.Context, path string) ([]byte, error)
}

// ContentSourceFunc adapts a function to ContentSource.
type ContentSourceFunc func(ctx context.Context, path string) ([]byte, error)

// FetchContent calls f.
func (f ContentSourceFunc) FetchContent(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}
