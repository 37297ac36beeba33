package instructions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	out        string
	err        error
	lastSystem *string
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Complete(_ context.Context, system, _ string) (string, error) {
	if s.lastSystem != nil {
		*s.lastSystem = system
	}
	return s.out, s.err
}

func TestGenerateFirstProviderWins(t *testing.T) {
	g := NewGenerator(
		stubProvider{name: "a", out: " use two columns "},
		stubProvider{name: "b", out: "never reached"},
	)
	require.Equal(t, "use two columns", g.Generate(context.Background(), "format nicely", "document", "notes.txt"))
}

func TestGenerateFallsThroughOnError(t *testing.T) {
	g := NewGenerator(
		stubProvider{name: "a", err: errors.New("quota")},
		stubProvider{name: "b", out: "second answer"},
	)
	require.Equal(t, "second answer", g.Generate(context.Background(), "format nicely", "document", "notes.txt"))
}

func TestGenerateStaticFallback(t *testing.T) {
	g := NewGenerator(
		stubProvider{name: "a", err: errors.New("down")},
		stubProvider{name: "b", out: "   "},
	)
	require.Equal(t, Default(), g.Generate(context.Background(), "format nicely", "document", "notes.txt"))
}

func TestGenerateEmptyQuery(t *testing.T) {
	g := NewGenerator(stubProvider{name: "a", out: "should not be called"})
	require.Equal(t, Default(), g.Generate(context.Background(), "  ", "document", "notes.txt"))
}

func TestGenerateNoProviders(t *testing.T) {
	g := NewGenerator()
	require.Equal(t, Default(), g.Generate(context.Background(), "anything", "audio", "talk.mp3"))
}

func TestGenerateSystemPromptNamesJobTypeAndFile(t *testing.T) {
	var system string
	g := NewGenerator(stubProvider{name: "a", out: "answer", lastSystem: &system})

	g.Generate(context.Background(), "group by speaker", "audio", "meeting.mp3")
	require.Contains(t, system, "audio")
	require.Contains(t, system, `"meeting.mp3"`)
}
