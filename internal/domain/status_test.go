package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlertTransitions(t *testing.T) {
	cases := []struct {
		from AlertStatus
		to   AlertStatus
		ok   bool
	}{
		{AlertUnread, AlertSeen, true},
		{AlertUnread, AlertOrderPlaced, true},
		{AlertSeen, AlertInProgress, true},
		{AlertInProgress, AlertArchived, true},
		{AlertSeen, AlertSeen, true},
		{AlertInProgress, AlertSeen, false},
		{AlertArchived, AlertOrderPlaced, false},
		{AlertOrderPlaced, AlertArchived, false},
		{AlertUnread, AlertStatus("DONE"), false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestAlertSourcesForOrderPlaced(t *testing.T) {
	assert.Equal(t, OpenAlertStatuses, AlertSourcesFor(AlertOrderPlaced))
	assert.Equal(t, []AlertStatus{AlertUnread}, AlertSourcesFor(AlertUnread))
}

func TestAppendComment(t *testing.T) {
	assert.Equal(t, "first", AppendComment("", "first"))
	assert.Equal(t, "first | second", AppendComment("first", "second"))
	assert.Equal(t, "first", AppendComment("first", ""))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityCritical.Rank(), PriorityLow.Rank())
	assert.False(t, AlertPriority("URGENT").Valid())
}
