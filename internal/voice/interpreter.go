package voice

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/tasks"
	"github.com/nhle/taskmaster/internal/view"
)

// HelpMessage lists example commands.
const HelpMessage = "You can say: add buy milk, delete 1, complete 1, edit task 2 to buy milk, restore task 2, show deleted tasks."

// TaskStore is the part of the mutation API the interpreter drives.
type TaskStore interface {
	Snapshot() []model.Task
	Add(text string, priority model.Priority, reminder *model.Reminder) (model.Task, error)
	ToggleComplete(id int64) (model.Task, error)
	SoftDelete(id int64) (model.Task, error)
	Restore(id int64) (model.Task, error)
	EditText(id int64, text string) (model.Task, error)
	ClearAll() (int, error)
}

// ViewState exposes the filter state that defines the visible list.
type ViewState interface {
	Query() view.Query
	SetTrashOpen(open bool)
}

// Confirmer asks the user to approve a destructive action. done may be
// called later, from any goroutine.
type Confirmer interface {
	Confirm(prompt string, done func(ok bool))
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string, done func(ok bool))

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string, done func(ok bool)) { f(prompt, done) }

// Outcome reports what a dispatched command did.
type Outcome struct {
	Intent  Intent
	Message string

	// Mutated is set when the command changed the store synchronously.
	Mutated bool

	// Stop asks the owning session to stop listening.
	Stop bool
}

type handler func(in Intent) Outcome

// Interpreter resolves intents against the visible list and applies them
// through the mutation API.
type Interpreter struct {
	tasks    TaskStore
	view     ViewState
	ann      *Announcer
	confirm  Confirmer
	handlers map[Kind]handler

	afterMutation func()
}

// NewInterpreter builds an interpreter. A nil confirmer declines every
// bulk deletion.
func NewInterpreter(ts TaskStore, vs ViewState, ann *Announcer, confirm Confirmer) *Interpreter {
	if confirm == nil {
		confirm = ConfirmFunc(func(_ string, done func(bool)) { done(false) })
	}
	i := &Interpreter{tasks: ts, view: vs, ann: ann, confirm: confirm}
	i.handlers = map[Kind]handler{
		KindStop:        i.stop,
		KindHelp:        i.help,
		KindShowDeleted: i.showDeleted,
		KindHideDeleted: i.hideDeleted,
		KindDeleteAll:   i.deleteAll,
		KindAdd:         i.add,
		KindRestore:     i.restore,
		KindEdit:        i.edit,
		KindDelete:      i.delete,
		KindComplete:    i.complete,
		KindList:        i.list,
		KindUnknown:     i.unknown,
	}
	return i
}

// SetAfterMutation registers a hook run after any command changes the
// store, including a confirmed bulk deletion.
func (i *Interpreter) SetAfterMutation(fn func()) {
	i.afterMutation = fn
}

// Interpret normalizes a raw transcript and executes it.
func (i *Interpreter) Interpret(raw string) Outcome {
	return i.Execute(Normalize(raw))
}

// Execute classifies an already normalized transcript and dispatches it.
func (i *Interpreter) Execute(norm string) Outcome {
	i.ann.Status("Processing...", StatusProcessing)

	in := Classify(norm)
	out := i.handlers[in.Kind](in)
	out.Intent = in
	if out.Mutated {
		i.mutated()
	}
	return out
}

func (i *Interpreter) mutated() {
	if i.afterMutation != nil {
		i.afterMutation()
	}
}

// say announces msg on every channel and records it in the outcome.
func (i *Interpreter) say(msg string, mutated bool) Outcome {
	i.ann.Announce(msg, StatusReady, HintAll)
	return Outcome{Message: msg, Mutated: mutated}
}

func (i *Interpreter) visible() []model.Task {
	return view.Apply(i.tasks.Snapshot(), i.view.Query())
}

// at resolves a 1-based index into list.
func at(list []model.Task, index int) (model.Task, bool) {
	if index < 1 || index > len(list) {
		return model.Task{}, false
	}
	return list[index-1], true
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (i *Interpreter) stop(Intent) Outcome {
	return Outcome{Stop: true}
}

func (i *Interpreter) help(Intent) Outcome {
	return i.say(HelpMessage, false)
}

func (i *Interpreter) showDeleted(Intent) Outcome {
	i.view.SetTrashOpen(true)
	return i.say("Showing deleted tasks.", false)
}

func (i *Interpreter) hideDeleted(Intent) Outcome {
	i.view.SetTrashOpen(false)
	return i.say("Closed deleted tasks.", false)
}

func (i *Interpreter) deleteAll(Intent) Outcome {
	if len(i.tasks.Snapshot()) == 0 {
		i.ann.Announce("No tasks to delete.", StatusError, HintAll)
		return Outcome{Message: "No tasks to delete."}
	}
	i.confirm.Confirm("Delete ALL tasks? This cannot be undone.", func(ok bool) {
		if !ok {
			i.ann.Announce("Kept all tasks.", StatusReady, HintAll)
			return
		}
		if _, err := i.tasks.ClearAll(); err != nil {
			i.ann.Announce("No tasks to delete.", StatusError, HintAll)
			return
		}
		i.ann.Announce("All tasks deleted.", StatusReady, HintAll)
		i.mutated()
	})
	return Outcome{Message: "Waiting for confirmation."}
}

func (i *Interpreter) add(in Intent) Outcome {
	added := 0
	for _, item := range in.Items {
		if _, err := i.tasks.Add(item.Text, item.Priority, nil); err != nil {
			log.Printf("voice: adding %q: %v", item.Text, err)
			continue
		}
		added++
	}
	if added == 0 {
		return i.say("Nothing to add.", false)
	}
	return i.say(fmt.Sprintf("Added %s.", plural(added, "task")), true)
}

func (i *Interpreter) restore(in Intent) Outcome {
	deleted := view.Deleted(i.tasks.Snapshot())

	if in.Numeric {
		t, ok := at(deleted, in.Index)
		if !ok {
			return i.say(fmt.Sprintf("Deleted task %s not found.", in.Operand), false)
		}
		if _, err := i.tasks.Restore(t.ID); err != nil {
			return i.say(fmt.Sprintf("Deleted task %s not found.", in.Operand), false)
		}
		return i.say(fmt.Sprintf("Restored task %s.", in.Operand), true)
	}

	t, ok := firstContaining(deleted, in.Text)
	if !ok {
		return i.say("No matching deleted task found.", false)
	}
	if _, err := i.tasks.Restore(t.ID); err != nil {
		return i.say("No matching deleted task found.", false)
	}
	return i.say("Restored item.", true)
}

func (i *Interpreter) edit(in Intent) Outcome {
	t, ok := at(i.visible(), in.Index)
	if !ok {
		return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
	}
	if _, err := i.tasks.EditText(t.ID, in.Text); err != nil {
		if errors.Is(err, tasks.ErrEmptyText) {
			i.ann.Announce("Task text cannot be empty.", StatusError, HintAll)
			return Outcome{Message: "Task text cannot be empty."}
		}
		return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
	}
	return i.say(fmt.Sprintf("Task %s updated.", in.Operand), true)
}

func (i *Interpreter) delete(in Intent) Outcome {
	if in.Numeric {
		t, ok := at(i.visible(), in.Index)
		if !ok {
			return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
		}
		if t.Deleted {
			return i.say(fmt.Sprintf("Task %s is already deleted.", in.Operand), false)
		}
		if _, err := i.tasks.SoftDelete(t.ID); err != nil {
			return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
		}
		return i.say(fmt.Sprintf("Deleted task %s.", in.Operand), true)
	}

	var live []model.Task
	for _, t := range i.tasks.Snapshot() {
		if !t.Deleted {
			live = append(live, t)
		}
	}
	t, ok := firstContaining(live, in.Text)
	if !ok {
		return i.say("No matching task found.", false)
	}
	if _, err := i.tasks.SoftDelete(t.ID); err != nil {
		return i.say("No matching task found.", false)
	}
	return i.say("Deleted matching task.", true)
}

func (i *Interpreter) complete(in Intent) Outcome {
	t, ok := at(i.visible(), in.Index)
	if !ok {
		return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
	}
	got, err := i.tasks.ToggleComplete(t.ID)
	if err != nil {
		return i.say(fmt.Sprintf("Task %s not found.", in.Operand), false)
	}
	if got.Completed {
		return i.say(fmt.Sprintf("Completed task %s.", in.Operand), true)
	}
	return i.say(fmt.Sprintf("Marked task %s active.", in.Operand), true)
}

func (i *Interpreter) list(Intent) Outcome {
	active := view.Count(i.tasks.Snapshot()).Active
	return i.say(fmt.Sprintf("You have %s.", plural(active, "active task")), false)
}

func (i *Interpreter) unknown(Intent) Outcome {
	const hint = "Command not recognized. Say 'help' for examples."
	i.ann.Announce("Unrecognized command", StatusError, HintStatus)
	i.ann.Announce(hint, StatusError, HintScreenReader|HintSpeech)
	return Outcome{Message: hint}
}

// firstContaining returns the first task whose text contains fragment,
// ignoring case.
func firstContaining(list []model.Task, fragment string) (model.Task, bool) {
	fragment = strings.ToLower(fragment)
	if fragment == "" {
		return model.Task{}, false
	}
	for _, t := range list {
		if strings.Contains(strings.ToLower(t.Text), fragment) {
			return t, true
		}
	}
	return model.Task{}, false
}
