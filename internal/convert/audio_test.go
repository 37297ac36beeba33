package convert

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTranscriber struct {
	result Transcription
	err    error
}

func (f fakeTranscriber) Transcribe(_ context.Context, _ io.Reader, _ string) (Transcription, error) {
	return f.result, f.err
}

func TestConvertAudioSegments(t *testing.T) {
	ft := fakeTranscriber{result: Transcription{
		Text: "Hi there",
		Segments: []TranscriptSegment{
			{Start: 0, End: 2, Text: " Hi"},
			{Start: 65, End: 70, Text: "there "},
		},
	}}

	out, err := ConvertAudio(context.Background(), ft, strings.NewReader("audio"), "a.mp3")
	require.NoError(t, err)
	require.Equal(t,
		`{"timestamp":"00:00:00","text":"Hi","start":0,"end":2}`+"\n"+
			`{"timestamp":"00:01:05","text":"there","start":65,"end":70}`, out)
}

func TestConvertAudioNoSegments(t *testing.T) {
	ft := fakeTranscriber{result: Transcription{Text: " full text only "}}

	out, err := ConvertAudio(context.Background(), ft, strings.NewReader("audio"), "a.wav")
	require.NoError(t, err)
	require.Equal(t, `{"timestamp":"00:00:00","text":"full text only","start":0,"end":0}`, out)
}

func TestConvertAudioBackendError(t *testing.T) {
	ft := fakeTranscriber{err: errors.New("upstream down")}

	_, err := ConvertAudio(context.Background(), ft, strings.NewReader("audio"), "a.mp3")
	require.EqualError(t, err, "upstream down")
}
