package todoform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskmaster/internal/model"
)

func TestSubmitCreate(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	m.fb.text = "  buy milk "
	m.fb.priority = "high"
	m.fb.reminderAt = "2030-01-02 09:30"
	m.fb.reminderEmail = true
	m.fb.reminderTo = "me@example.com"

	msg, ok := m.handleSubmit()().(TaskSubmittedMsg)
	require.True(t, ok)
	assert.Equal(t, "buy milk", msg.Text)
	assert.Equal(t, model.PriorityHigh, msg.Priority)
	require.NotNil(t, msg.Reminder)
	assert.Equal(t, 9, msg.Reminder.At.Hour())
	assert.True(t, msg.Reminder.Email)
	assert.Equal(t, "me@example.com", msg.Reminder.To)
}

func TestSubmitCreateWithoutReminder(t *testing.T) {
	m := New(80, 24)
	m.StartCreate()
	m.fb.text = "call mom"

	msg := m.handleSubmit()().(TaskSubmittedMsg)
	assert.Nil(t, msg.Reminder)
	assert.Equal(t, model.PriorityMedium, msg.Priority)
}

func TestSubmitEdit(t *testing.T) {
	m := New(80, 24)
	m.StartEdit(model.Task{ID: 7, Text: "old", Priority: model.PriorityLow})
	m.fb.text = "new"

	assert.Equal(t, TaskEditedMsg{ID: 7, Text: "new"}, m.handleSubmit()())
}

func TestValidators(t *testing.T) {
	assert.Error(t, validateRequired("Task")("   "))
	assert.NoError(t, validateRequired("Task")("x"))

	assert.NoError(t, validateOptionalDateTime(""))
	assert.NoError(t, validateOptionalDateTime("2030-01-02 09:30"))
	assert.Error(t, validateOptionalDateTime("tomorrow"))

	assert.NoError(t, validateOptionalEmail(""))
	assert.NoError(t, validateOptionalEmail("a@b.com"))
	assert.Error(t, validateOptionalEmail("not-an-address"))
}
