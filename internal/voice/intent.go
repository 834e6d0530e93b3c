package voice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/taskmaster/internal/model"
)

// Kind identifies a classified voice command.
type Kind int

const (
	KindUnknown Kind = iota
	KindStop
	KindHelp
	KindShowDeleted
	KindHideDeleted
	KindDeleteAll
	KindAdd
	KindRestore
	KindEdit
	KindDelete
	KindComplete
	KindList
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindStop:        "stop",
	KindHelp:        "help",
	KindShowDeleted: "show-deleted",
	KindHideDeleted: "hide-deleted",
	KindDeleteAll:   "delete-all",
	KindAdd:         "add",
	KindRestore:     "restore",
	KindEdit:        "edit",
	KindDelete:      "delete",
	KindComplete:    "complete",
	KindList:        "list",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Mutates reports whether a command of this kind changes the store.
func (k Kind) Mutates() bool {
	switch k {
	case KindDeleteAll, KindAdd, KindRestore, KindEdit, KindDelete, KindComplete:
		return true
	}
	return false
}

// AddItem is one task requested by an add command.
type AddItem struct {
	Text     string
	Priority model.Priority
}

// Intent is the result of classifying a normalized transcript.
type Intent struct {
	Kind Kind

	// Operand is the target as spoken: an index or a text fragment.
	Operand string

	// Index is the 1-based position named by Operand when Numeric is set.
	Index   int
	Numeric bool

	// Text is the replacement text of an edit command.
	Text string

	// Items are the tasks of an add command.
	Items []AddItem
}

// rule pairs a pattern with the extractor that builds the intent from its
// submatches. useCommas selects the comma-preserving form as input.
type rule struct {
	kind      Kind
	re        *regexp.Regexp
	useCommas bool
	extract   func(m []string) Intent
}

// rules are tried in order and the first match wins. Generic patterns such
// as list come after the specific ones that share their vocabulary.
var rules = []rule{
	{kind: KindStop, re: regexp.MustCompile(`^(?:stop|exit|quit|done|end)$`)},
	{kind: KindHelp, re: regexp.MustCompile(`^(?:help|commands|what can you do)\b`)},
	{kind: KindShowDeleted, re: regexp.MustCompile(`\b(?:show|view|open)\b.*\b(?:deleted|trash|bin)\b`)},
	{kind: KindHideDeleted, re: regexp.MustCompile(`\b(?:hide|close|dismiss)\b.*\b(?:deleted|trash|bin)\b`)},
	{
		kind: KindDeleteAll,
		re:   regexp.MustCompile(`^(?:delete|clear|remove|reset) (?:all|everything|tasks)$|\b(?:delete|clear)\b.*\b(?:all|everything)\b`),
	},
	{
		kind:      KindAdd,
		re:        regexp.MustCompile(`^(?:add|create|remind(?: me)? to) (.+)$`),
		useCommas: true,
		extract: func(m []string) Intent {
			return Intent{Kind: KindAdd, Items: parseAddBody(m[1])}
		},
	},
	{
		kind:    KindRestore,
		re:      regexp.MustCompile(`^(?:restore|undelete) (?:task )?#?(.+)$`),
		extract: func(m []string) Intent { return operandIntent(KindRestore, m[1]) },
	},
	{
		kind: KindEdit,
		re:   regexp.MustCompile(`^(?:edit|rename) (?:task )?#?(\d+) ?(?:to|as|change name to) (.+)$`),
		extract: func(m []string) Intent {
			in := operandIntent(KindEdit, m[1])
			in.Text = strings.TrimSpace(m[2])
			return in
		},
	},
	{
		kind:    KindDelete,
		re:      regexp.MustCompile(`^(?:delete|remove|discard|clear) (?:task )?#?(.+)$`),
		extract: func(m []string) Intent { return operandIntent(KindDelete, m[1]) },
	},
	{
		kind:    KindComplete,
		re:      regexp.MustCompile(`^(?:complete|done|finish|mark) (?:task )?#?(\d+)\b`),
		extract: func(m []string) Intent { return operandIntent(KindComplete, m[1]) },
	},
	{kind: KindList, re: regexp.MustCompile(`^(?:list|show|display)\b`)},
}

// Classify maps a normalized transcript to an intent. Unmatched input
// yields KindUnknown.
func Classify(norm string) Intent {
	flat := plain(norm)
	for _, r := range rules {
		input := flat
		if r.useCommas {
			input = norm
		}
		m := r.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		if r.extract == nil {
			return Intent{Kind: r.kind}
		}
		return r.extract(m)
	}
	return Intent{Kind: KindUnknown}
}

// operandIntent treats an all-digit operand as a 1-based index and any
// other operand as text to match.
func operandIntent(k Kind, operand string) Intent {
	operand = strings.TrimSpace(operand)
	in := Intent{Kind: k, Operand: operand}
	if isDigits(operand) {
		in.Numeric = true
		if n, err := strconv.Atoi(operand); err == nil {
			in.Index = n
		}
		return in
	}
	in.Text = operand
	return in
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var prioritySynonyms = map[string]model.Priority{
	"high":      model.PriorityHigh,
	"urgent":    model.PriorityHigh,
	"important": model.PriorityHigh,
	"asap":      model.PriorityHigh,
	"low":       model.PriorityLow,
	"minor":     model.PriorityLow,
	"normal":    model.PriorityLow,
}

// parseAddBody splits an add body on commas. A trailing priority word sets
// the item's priority and is removed from its text. Items left with no
// text are dropped.
func parseAddBody(body string) []AddItem {
	var items []AddItem
	for _, part := range strings.Split(body, ",") {
		words := strings.Fields(part)
		if len(words) == 0 {
			continue
		}
		priority := model.PriorityMedium
		if p, ok := prioritySynonyms[words[len(words)-1]]; ok {
			priority = p
			words = words[:len(words)-1]
		}
		if len(words) == 0 {
			continue
		}
		items = append(items, AddItem{Text: strings.Join(words, " "), Priority: priority})
	}
	return items
}
