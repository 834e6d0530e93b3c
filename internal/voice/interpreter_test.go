package voice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/testutil"
	"github.com/nhle/taskmaster/internal/view"
)

func TestAddMultipleWithPriority(t *testing.T) {
	h := newHarness(t)

	out := h.interp.Interpret("add buy milk, call mom high")
	assert.Equal(t, "Added 2 tasks.", out.Message)
	assert.True(t, out.Mutated)

	snap := h.store.Snapshot()
	require.Len(t, snap, 2)
	byText := map[string]model.Priority{}
	for _, task := range snap {
		byText[task.Text] = task.Priority
	}
	assert.Equal(t, map[string]model.Priority{
		"buy milk": model.PriorityMedium,
		"call mom": model.PriorityHigh,
	}, byText)
}

func TestAddSingular(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Added 1 task.", h.interp.Interpret("remind me to water plants").Message)
}

func TestAddNothing(t *testing.T) {
	h := newHarness(t)
	out := h.interp.Interpret("add urgent")
	assert.Equal(t, "Nothing to add.", out.Message)
	assert.False(t, out.Mutated)
	assert.Empty(t, h.store.Snapshot())
}

func TestDeleteByIndexUsesVisibleList(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "first", "second", "third")
	// Visible, newest first: third, second, first.

	out := h.interp.Interpret("delete 2")
	assert.Equal(t, "Deleted task 2.", out.Message)

	for _, task := range h.store.Snapshot() {
		assert.Equal(t, task.Text == "second", task.Deleted, task.Text)
	}
}

func TestDeleteByIndexHonoursSortAndFilter(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "banana", "apple", "cherry")
	h.view.SetSort(view.SortName)

	h.interp.Interpret("delete first")

	deleted := view.Deleted(h.store.Snapshot())
	require.Len(t, deleted, 1)
	assert.Equal(t, "apple", deleted[0].Text)
}

func TestDeleteOutOfRange(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "only")

	out := h.interp.Interpret("delete 5")
	assert.Equal(t, "Task 5 not found.", out.Message)
	assert.False(t, out.Mutated)

	out = h.interp.Interpret("delete 0")
	assert.Equal(t, "Task 0 not found.", out.Message)
}

func TestDeleteInDeletedViewChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "gone")
	h.interp.Interpret("delete 1")
	h.view.SetStatus(view.StatusDeleted)
	calls := 0
	h.interp.SetAfterMutation(func() { calls++ })

	out := h.interp.Interpret("delete 1")
	assert.Equal(t, "Task 1 is already deleted.", out.Message)
	assert.False(t, out.Mutated)
	assert.Zero(t, calls)
	assert.Len(t, view.Deleted(h.store.Snapshot()), 1)
}

func TestDeleteByText(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "Buy Milk", "call mom")

	out := h.interp.Interpret("delete milk")
	assert.Equal(t, "Deleted matching task.", out.Message)
	assert.Equal(t, "Buy Milk", view.Deleted(h.store.Snapshot())[0].Text)

	out = h.interp.Interpret("delete milk")
	assert.Equal(t, "No matching task found.", out.Message)
	assert.False(t, out.Mutated)
}

func TestRestoreBindsToDeletedStoreOrder(t *testing.T) {
	kv := testutil.NewTestStore(t)
	// D1 is older but comes first in store order.
	raw := `[
		{"id":1,"text":"D1","priority":"medium","deleted":true,"createdAt":"2024-01-01T00:00:00.000Z"},
		{"id":2,"text":"live","priority":"medium","createdAt":"2024-01-03T00:00:00.000Z"},
		{"id":3,"text":"D2","priority":"medium","deleted":true,"createdAt":"2024-01-02T00:00:00.000Z"}
	]`
	require.NoError(t, kv.Set(context.Background(), store.KeyTasks, raw))
	ts, err := tasks.Load(context.Background(), kv)
	require.NoError(t, err)

	prefs := LoadPrefs(context.Background(), kv)
	interp := NewInterpreter(ts, view.NewState(), NewAnnouncer(nil, nil, prefs), nil)

	out := interp.Interpret("restore 1")
	assert.Equal(t, "Restored task 1.", out.Message)

	d1, _ := ts.Get(1)
	d2, _ := ts.Get(3)
	assert.False(t, d1.Deleted)
	assert.True(t, d2.Deleted)

	out = interp.Interpret("restore 2")
	assert.Equal(t, "Deleted task 2 not found.", out.Message)
}

func TestRestoreByText(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "buy milk", "walk dog")
	h.interp.Interpret("delete milk")

	out := h.interp.Interpret("restore task milk")
	assert.Equal(t, "Restored item.", out.Message)
	assert.Empty(t, view.Deleted(h.store.Snapshot()))

	out = h.interp.Interpret("restore dog")
	assert.Equal(t, "No matching deleted task found.", out.Message)
}

func TestEdit(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "old", "newest")

	out := h.interp.Interpret("edit task 2 to buy bread")
	assert.Equal(t, "Task 2 updated.", out.Message)
	assert.True(t, out.Mutated)

	visible := view.Apply(h.store.Snapshot(), h.view.Query())
	assert.Equal(t, "buy bread", visible[1].Text)

	assert.Equal(t, "Task 9 not found.", h.interp.Interpret("rename 9 as x").Message)
}

func TestCompleteToggles(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a")

	out := h.interp.Interpret("complete one")
	assert.Equal(t, "Completed task 1.", out.Message)
	assert.True(t, h.store.Snapshot()[0].Completed)

	out = h.interp.Interpret("complete 1")
	assert.Equal(t, "Marked task 1 active.", out.Message)
	assert.False(t, h.store.Snapshot()[0].Completed)
}

func TestCompleteUsesActiveFilter(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", "b")
	h.view.SetStatus(view.StatusActive)

	h.interp.Interpret("complete 1")
	assert.Equal(t, "Task 2 not found.", h.interp.Interpret("complete 2").Message)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "You have 0 active tasks.", h.interp.Interpret("list").Message)

	h.seed(t, "a", "b")
	h.interp.Interpret("complete 1")
	out := h.interp.Interpret("show my tasks")
	assert.Equal(t, "You have 1 active task.", out.Message)
	assert.False(t, out.Mutated)
}

func TestHelpAndTray(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, HelpMessage, h.interp.Interpret("what can you do").Message)

	h.interp.Interpret("show deleted tasks")
	assert.True(t, h.view.TrashOpen())
	assert.Equal(t, "Showing deleted tasks.", h.display.lastReader())

	h.interp.Interpret("hide the trash")
	assert.False(t, h.view.TrashOpen())
	assert.Equal(t, "Closed deleted tasks.", h.display.lastReader())
}

func TestDeleteAllConfirmed(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", "b")
	mutations := 0
	h.interp.SetAfterMutation(func() { mutations++ })

	out := h.interp.Interpret("delete all")
	assert.False(t, out.Mutated)
	assert.NotEmpty(t, h.confirmPrompt)
	assert.Empty(t, h.store.Snapshot())
	assert.Equal(t, "All tasks deleted.", h.display.lastReader())
	assert.Equal(t, 1, mutations)
}

func TestDeleteAllDeclined(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a")
	h.confirmAnswer = false

	h.interp.Interpret("clear everything")
	assert.Len(t, h.store.Snapshot(), 1)
	assert.Equal(t, "Kept all tasks.", h.display.lastReader())
}

func TestDeleteAllEmptyStoreWarns(t *testing.T) {
	h := newHarness(t)

	out := h.interp.Interpret("delete all")
	assert.Equal(t, "No tasks to delete.", out.Message)
	assert.Empty(t, h.confirmPrompt)
}

func TestUnrecognized(t *testing.T) {
	h := newHarness(t)

	out := h.interp.Interpret("sing me a song")
	assert.Equal(t, KindUnknown, out.Intent.Kind)
	assert.Equal(t, statusLine{"Unrecognized command", StatusError}, h.display.lastStatus())
	assert.Equal(t, "Command not recognized. Say 'help' for examples.", h.display.lastReader())
}

func TestStopAsksSessionToStop(t *testing.T) {
	h := newHarness(t)
	out := h.interp.Interpret("quit")
	assert.True(t, out.Stop)
	assert.Empty(t, out.Message)
}

func TestSpeechGatedByPreference(t *testing.T) {
	h := newHarness(t)

	h.interp.Interpret("help")
	assert.Empty(t, h.speaker.said())
	assert.Equal(t, HelpMessage, h.display.lastReader(), "screen reader always gets the message")

	require.NoError(t, h.prefs.SetVoiceEnabled(context.Background(), true))
	h.interp.Interpret("list")
	assert.Equal(t, []string{"You have 0 active tasks."}, h.speaker.said())
}

func TestAfterMutationHook(t *testing.T) {
	h := newHarness(t)
	calls := 0
	h.interp.SetAfterMutation(func() { calls++ })

	h.interp.Interpret("list")
	h.interp.Interpret("add a")
	h.interp.Interpret("delete 7")
	assert.Equal(t, 1, calls)
}
