package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentjobs/agentjobs/internal/apperr"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{
		"draft", "planned", "ready", "in_progress", "blocked",
		"waiting_for_human", "under_review", "completed", "archived",
	} {
		status, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Status(raw), status)
	}

	_, err := ParseStatus("in progress")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))

	_, err = ParseStatus("")
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	for _, raw := range []string{"low", "medium", "high", "critical"} {
		priority, err := ParsePriority(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Priority(raw), priority)
	}

	_, err := ParsePriority("urgent")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))
}

func TestParseCommentKind(t *testing.T) {
	for _, raw := range []string{"comment", "question", "answer", "review"} {
		kind, err := ParseCommentKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, CommentKind(raw), kind)
	}

	_, err := ParseCommentKind("remark")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 0, PriorityCritical.Rank())
	assert.Equal(t, 1, PriorityHigh.Rank())
	assert.Equal(t, 2, PriorityMedium.Rank())
	assert.Equal(t, 3, PriorityLow.Rank())

	// Urgency ordering: critical before high before medium before low.
	assert.Less(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
}
