package reorder

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_CommitPromotes(t *testing.T) {
	base := twoLists()
	next := fixture([]string{"A", "B"}, map[string][]string{"A": {"1", "3"}, "B": {"4", "2", "5"}})
	p := NewPending(base)

	assert.True(t, p.Begin(next, MoveRequest{CardID: "2", ListID: "B", Position: 1}))
	req, ok := p.Request()
	assert.True(t, ok)
	assert.Equal(t, "2", req.CardID)
	assert.Empty(t, cmp.Diff(next, p.Current()))
	assert.Empty(t, cmp.Diff(base, p.Confirmed()))

	p.Commit()

	_, ok = p.Request()
	assert.False(t, ok)
	assert.Empty(t, cmp.Diff(next, p.Confirmed()))
	assert.Empty(t, cmp.Diff(next, p.Current()))
}

func TestPending_RollbackRestores(t *testing.T) {
	base := twoLists()
	p := NewPending(base)

	p.Begin(fixture([]string{"A"}, nil), MoveRequest{})
	p.Rollback()

	assert.Empty(t, cmp.Diff(base, p.Current()))
}

func TestPending_OnlyOneAtATime(t *testing.T) {
	p := NewPending(twoLists())

	assert.True(t, p.Begin(twoLists(), MoveRequest{CardID: "1"}))
	assert.False(t, p.Begin(twoLists(), MoveRequest{CardID: "2"}))

	req, _ := p.Request()
	assert.Equal(t, "1", req.CardID)
}

func TestPending_CommitWithoutPendingIsNoop(t *testing.T) {
	base := twoLists()
	p := NewPending(base)

	p.Commit()

	assert.Empty(t, cmp.Diff(base, p.Current()))
}

func TestPending_ReplaceWhilePendingRebasesOnCommit(t *testing.T) {
	p := NewPending(twoLists())
	next := fixture([]string{"A", "B"}, map[string][]string{"A": {"1", "3"}, "B": {"4", "2", "5"}})
	require.True(t, p.Begin(next, MoveRequest{CardID: "2", ListID: "B", Position: 1}))

	p.Replace(fixture([]string{"A", "B", "C"}, map[string][]string{"A": {"1", "2", "3"}, "B": {"4", "5"}, "C": {"7"}}))
	assert.Empty(t, cmp.Diff(next, p.Current()))

	p.Commit()

	want := fixture([]string{"A", "B", "C"}, map[string][]string{"A": {"1", "3"}, "B": {"4", "2", "5"}, "C": {"7"}})
	assert.Empty(t, cmp.Diff(want, p.Current()))
}

func TestPending_RebaseSkipsDeletedCard(t *testing.T) {
	p := NewPending(twoLists())
	p.Begin(twoLists(), MoveRequest{CardID: "2", ListID: "B", Position: 0})

	gone := fixture([]string{"A", "B"}, map[string][]string{"A": {"1", "3"}, "B": {"4", "5"}})
	p.Replace(gone)
	p.Commit()

	assert.Empty(t, cmp.Diff(gone, p.Current()))
}
