package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	assert.Equal(t, 21, NewLayout(80, 24).ContentHeight())
	assert.Equal(t, 0, NewLayout(80, 2).ContentHeight())
}

func TestRenderAssistantTruncatesPreview(t *testing.T) {
	l := NewLayout(30, 24)
	out := l.RenderAssistant("listening", "Listening...", "add buy milk and eggs and bread and butter")
	assert.LessOrEqual(t, lipgloss.Width(out), 30)
	assert.Contains(t, out, "Listening...")

	assert.NotContains(t, l.RenderAssistant("ready", "Ready", ""), "  ")
}
