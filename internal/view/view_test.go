package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/taskmaster/internal/model"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func task(id int64, text string, p model.Priority) model.Task {
	return model.Task{
		ID:        id,
		Text:      text,
		Priority:  p,
		CreatedAt: model.NewTimestamp(base.Add(time.Duration(id) * time.Minute)),
	}
}

func ids(ts []model.Task) []int64 {
	out := make([]int64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func fixture() []model.Task {
	open := task(1, "Buy milk", model.PriorityLow)
	done := task(2, "call mom", model.PriorityHigh)
	done.Completed = true
	trashed := task(3, "walk dog", model.PriorityMedium)
	trashed.Deleted = true
	trashedDone := task(4, "file taxes", model.PriorityHigh)
	trashedDone.Deleted = true
	trashedDone.Completed = true
	return []model.Task{trashedDone, trashed, done, open}
}

func TestStatusFilters(t *testing.T) {
	all := fixture()

	cases := map[Status][]int64{
		StatusAll:       {2, 1},
		StatusActive:    {1},
		StatusCompleted: {2},
		StatusDeleted:   {4, 3},
	}
	for status, want := range cases {
		q := DefaultQuery()
		q.Status = status
		assert.Equal(t, want, ids(Apply(all, q)), "status %s", status)
	}
}

func TestDeletedNeverInLiveViews(t *testing.T) {
	all := fixture()
	for _, st := range []Status{StatusAll, StatusActive, StatusCompleted} {
		for _, got := range Apply(all, Query{Status: st, Priority: PriorityAll}) {
			assert.False(t, got.Deleted, "status %s leaked deleted task %d", st, got.ID)
		}
	}
}

func TestPriorityFilter(t *testing.T) {
	q := DefaultQuery()
	q.Priority = model.PriorityHigh
	assert.Equal(t, []int64{2}, ids(Apply(fixture(), q)))
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	q := DefaultQuery()
	q.Search = "MIL"
	assert.Equal(t, []int64{1}, ids(Apply(fixture(), q)))

	q.Search = "milk buy"
	assert.Empty(t, Apply(fixture(), q))
}

func TestSortPriorityIsStable(t *testing.T) {
	in := []model.Task{
		task(1, "a", model.PriorityLow),
		task(2, "b", model.PriorityHigh),
		task(3, "c", model.PriorityMedium),
		task(4, "d", model.PriorityHigh),
	}
	q := DefaultQuery()
	q.Sort = SortPriority
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(Apply(in, q)))
}

func TestSortName(t *testing.T) {
	in := []model.Task{
		task(1, "banana", ""),
		task(2, "Apple", ""),
		task(3, "cherry", ""),
	}
	q := DefaultQuery()
	q.Sort = SortName
	assert.Equal(t, []int64{2, 1, 3}, ids(Apply(in, q)))
}

func TestSortDateNewestFirst(t *testing.T) {
	in := []model.Task{task(1, "a", ""), task(3, "c", ""), task(2, "b", "")}
	assert.Equal(t, []int64{3, 2, 1}, ids(Apply(in, DefaultQuery())))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := []model.Task{task(1, "b", ""), task(2, "a", "")}
	q := DefaultQuery()
	q.Sort = SortName
	_ = Apply(in, q)
	assert.Equal(t, []int64{1, 2}, ids(in))
}

func TestDeletedKeepsStoreOrder(t *testing.T) {
	assert.Equal(t, []int64{4, 3}, ids(Deleted(fixture())))
	assert.Empty(t, Deleted(nil))
}

func TestCount(t *testing.T) {
	assert.Equal(t, Stats{Total: 2, Active: 1, Completed: 1, Deleted: 2}, Count(fixture()))
}

func TestStateCycles(t *testing.T) {
	s := NewState()
	changes := 0
	s.SetOnChange(func() { changes++ })

	s.CycleSort()
	assert.Equal(t, SortPriority, s.Query().Sort)
	s.CycleSort()
	s.CycleSort()
	assert.Equal(t, SortDate, s.Query().Sort)

	s.CyclePriority()
	assert.Equal(t, model.PriorityHigh, s.Query().Priority)

	s.CycleStatus()
	assert.Equal(t, StatusActive, s.Query().Status)

	s.SetSearch("milk")
	s.SetTrashOpen(true)
	assert.Equal(t, "milk", s.Query().Search)
	assert.True(t, s.TrashOpen())
	assert.Equal(t, 7, changes)
}
