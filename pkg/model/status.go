package model

import (
	"fmt"

	"github.com/agentjobs/agentjobs/internal/apperr"
)

// Status is the workflow state of a task. The set is closed; any status
// may follow any other, transition policy lives with the callers.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPlanned         Status = "planned"
	StatusReady           Status = "ready"
	StatusInProgress      Status = "in_progress"
	StatusBlocked         Status = "blocked"
	StatusWaitingForHuman Status = "waiting_for_human"
	StatusUnderReview     Status = "under_review"
	StatusCompleted       Status = "completed"
	StatusArchived        Status = "archived"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type CriterionStatus string

const (
	CriterionPending    CriterionStatus = "pending"
	CriterionInProgress CriterionStatus = "in_progress"
	CriterionCompleted  CriterionStatus = "completed"
	CriterionFailed     CriterionStatus = "failed"
)

type DeliverableStatus string

const (
	DeliverablePending    DeliverableStatus = "pending"
	DeliverableInProgress DeliverableStatus = "in_progress"
	DeliverableCompleted  DeliverableStatus = "completed"
)

type DependencyType string

const (
	DependencyDependsOn DependencyType = "depends_on"
	DependencyBlocks    DependencyType = "blocks"
	DependencyRelated   DependencyType = "related"
)

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueWontFix    IssueStatus = "wont_fix"
)

type BranchStatus string

const (
	BranchActive    BranchStatus = "active"
	BranchMerged    BranchStatus = "merged"
	BranchAbandoned BranchStatus = "abandoned"
)

type CommentKind string

const (
	CommentKindComment  CommentKind = "comment"
	CommentKindQuestion CommentKind = "question"
	CommentKindAnswer   CommentKind = "answer"
	CommentKindReview   CommentKind = "review"
)

var validStatuses = map[Status]bool{
	StatusDraft:           true,
	StatusPlanned:         true,
	StatusReady:           true,
	StatusInProgress:      true,
	StatusBlocked:         true,
	StatusWaitingForHuman: true,
	StatusUnderReview:     true,
	StatusCompleted:       true,
	StatusArchived:        true,
}

var validPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

var validCriterionStatuses = map[CriterionStatus]bool{
	CriterionPending:    true,
	CriterionInProgress: true,
	CriterionCompleted:  true,
	CriterionFailed:     true,
}

var validDeliverableStatuses = map[DeliverableStatus]bool{
	DeliverablePending:    true,
	DeliverableInProgress: true,
	DeliverableCompleted:  true,
}

var validDependencyTypes = map[DependencyType]bool{
	DependencyDependsOn: true,
	DependencyBlocks:    true,
	DependencyRelated:   true,
}

var validIssueStatuses = map[IssueStatus]bool{
	IssueOpen:       true,
	IssueInProgress: true,
	IssueResolved:   true,
	IssueWontFix:    true,
}

var validBranchStatuses = map[BranchStatus]bool{
	BranchActive:    true,
	BranchMerged:    true,
	BranchAbandoned: true,
}

var validCommentKinds = map[CommentKind]bool{
	CommentKindComment:  true,
	CommentKindQuestion: true,
	CommentKindAnswer:   true,
	CommentKindReview:   true,
}

// priorityRank orders priorities for scheduling: lower rank = more urgent.
var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

func (p Priority) Rank() int {
	return priorityRank[p]
}

func ParseStatus(s string) (Status, error) {
	v := Status(s)
	if !validStatuses[v] {
		return "", apperr.Invalid(fmt.Sprintf("invalid status %q (allowed: draft|planned|ready|in_progress|blocked|waiting_for_human|under_review|completed|archived)", s))
	}
	return v, nil
}

func ParsePriority(s string) (Priority, error) {
	v := Priority(s)
	if !validPriorities[v] {
		return "", apperr.Invalid(fmt.Sprintf("invalid priority %q (allowed: low|medium|high|critical)", s))
	}
	return v, nil
}

func ParseCommentKind(s string) (CommentKind, error) {
	v := CommentKind(s)
	if !validCommentKinds[v] {
		return "", apperr.Invalid(fmt.Sprintf("invalid comment kind %q (allowed: comment|question|answer|review)", s))
	}
	return v, nil
}

func (s Status) Valid() bool            { return validStatuses[s] }
func (p Priority) Valid() bool          { return validPriorities[p] }
func (s CriterionStatus) Valid() bool   { return validCriterionStatuses[s] }
func (s DeliverableStatus) Valid() bool { return validDeliverableStatuses[s] }
func (t DependencyType) Valid() bool    { return validDependencyTypes[t] }
func (s IssueStatus) Valid() bool       { return validIssueStatuses[s] }
func (s BranchStatus) Valid() bool      { return validBranchStatuses[s] }
func (k CommentKind) Valid() bool       { return validCommentKinds[k] }
