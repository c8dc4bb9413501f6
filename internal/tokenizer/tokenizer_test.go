package tokenizer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UnknownScheme(t *testing.T) {
	for _, scheme := range []string{"", "not-a-model-at-all", "o300k_base"} {
		_, err := New(scheme)
		require.Error(t, err, "scheme %q", scheme)
		assert.True(t, errors.Is(err, ErrUnsupportedModel))

		var unsupported *UnsupportedModelError
		require.True(t, errors.As(err, &unsupported))
		assert.Equal(t, scheme, unsupported.Scheme)
	}
}

func TestWords_Count(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   \n\t", 0},
		{"hello", 1},
		{"hello world", 2},
		{"LED bulbs use up to 80% less energy.", 10},
		{"don't", 3},
		{"a\n\nb", 2},
	}

	tok, err := New(SchemeWords)
	require.NoError(t, err)
	assert.Equal(t, SchemeWords, tok.Scheme())

	for _, tt := range tests {
		assert.Equal(t, tt.want, tok.Count(tt.text), "text %q", tt.text)
	}
}

func TestWords_PrefixMonotonic(t *testing.T) {
	text := "Switch off appliances at the wall. Standby power adds up!"
	var tok Words
	prev := 0
	for i := range text {
		n := tok.Count(text[:i])
		assert.GreaterOrEqual(t, n, prev, "prefix %q", text[:i])
		prev = n
	}
}

type msg string

func (m msg) Text() string { return string(m) }

func TestCountMessages(t *testing.T) {
	got := CountMessages(Words{}, []msg{"You are helpful.", "How do I save energy?"})
	assert.Equal(t, 4+6, got)
}

func TestNew_BPESchemes(t *testing.T) {
	tests := []struct {
		scheme string
		text   string
		want   int
	}{
		{"gpt-4o-mini", "hello world", 2},
		{"gpt-4o", "hello world", 2},
		{"o200k_base", "hello world", 2},
		{"cl100k_base", "hello world", 2},
		{"gpt-3.5-turbo", "hello world", 2},
		{"gpt-4o-mini", "", 0},
	}
	for _, tt := range tests {
		tok, err := New(tt.scheme)
		require.NoError(t, err, "scheme %q", tt.scheme)
		assert.Equal(t, tt.scheme, tok.Scheme())
		assert.Equal(t, tt.want, tok.Count(tt.text), "scheme %q text %q", tt.scheme, tt.text)
	}
}

func TestBPE_Deterministic(t *testing.T) {
	tok, err := New(DefaultScheme)
	require.NoError(t, err)

	text := "Energy-efficient refrigerators carry the tick label."
	n := tok.Count(text)
	assert.Positive(t, n)
	assert.Equal(t, n, tok.Count(text), "counting must be deterministic")
	assert.Greater(t, tok.Count(text+" "+text), n)
}

func TestBPE_ConcurrentUse(t *testing.T) {
	tok, err := New(DefaultScheme)
	require.NoError(t, err)

	want := tok.Count("Switch off appliances at the wall.")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, tok.Count("Switch off appliances at the wall."))
		}()
	}
	wg.Wait()
}
