// Package view derives ordered, filtered task lists from the store.
// Apply is pure: the same inputs always yield the same order, which the
// voice interpreter relies on to resolve "the Nth visible task".
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nhle/taskmaster/internal/model"
)

// Status selects which lifecycle slice of the store is visible.
type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
)

// Statuses lists the status filters in display order.
var Statuses = []Status{StatusAll, StatusActive, StatusCompleted, StatusDeleted}

// PriorityAll disables the priority filter.
const PriorityAll model.Priority = "all"

// Sort is the ordering applied to a view.
type Sort string

const (
	SortDate     Sort = "date"
	SortPriority Sort = "priority"
	SortName     Sort = "name"
)

// Sorts lists the sort modes in cycle order.
var Sorts = []Sort{SortDate, SortPriority, SortName}

// Query is the full filter/sort/search state of a view.
type Query struct {
	Status   Status
	Priority model.Priority
	Search   string
	Sort     Sort
}

// DefaultQuery shows every live task, newest first.
func DefaultQuery() Query {
	return Query{Status: StatusAll, Priority: PriorityAll, Sort: SortDate}
}

// Matches reports whether t passes q's status, priority and search filters.
func (q Query) Matches(t model.Task) bool {
	switch q.Status {
	case StatusActive:
		if t.Completed || t.Deleted {
			return false
		}
	case StatusCompleted:
		if !t.Completed || t.Deleted {
			return false
		}
	case StatusDeleted:
		if !t.Deleted {
			return false
		}
	default:
		if t.Deleted {
			return false
		}
	}

	if q.Priority != "" && q.Priority != PriorityAll && t.Priority != q.Priority {
		return false
	}

	if q.Search != "" && !strings.Contains(strings.ToLower(t.Text), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

// Apply returns the tasks matching q, sorted per q.Sort. The input slice
// is never modified. Ties keep store order.
func Apply(all []model.Task, q Query) []model.Task {
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if q.Matches(t) {
			out = append(out, t)
		}
	}

	switch q.Sort {
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		})
	case SortName:
		// A collator is not safe for concurrent use, so each call builds one.
		c := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return c.CompareString(out[i].Text, out[j].Text) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt.Time)
		})
	}
	return out
}

// Deleted returns the soft-deleted tasks in store order. Restore by index
// binds to this order, and the trash tray renders it unchanged.
func Deleted(all []model.Task) []model.Task {
	var out []model.Task
	for _, t := range all {
		if t.Deleted {
			out = append(out, t)
		}
	}
	return out
}

// Stats are the headline counters of the store.
type Stats struct {
	Total     int // live tasks, completed or not
	Active    int
	Completed int
	Deleted   int
}

// Count tallies s over all.
func Count(all []model.Task) Stats {
	var s Stats
	for _, t := range all {
		switch {
		case t.Deleted:
			s.Deleted++
		case t.Completed:
			s.Total++
			s.Completed++
		default:
			s.Total++
			s.Active++
		}
	}
	return s
}
