// Package tokenizer counts tokens for a named tokenization scheme.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// BPE ranks are embedded in the binary; no encoding file is downloaded.
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// SchemeWords is the offline word and punctuation counter.
const SchemeWords = "words"

// DefaultScheme matches the chat model the advisor talks to.
const DefaultScheme = "gpt-4o-mini"

// ErrUnsupportedModel is matched by every *UnsupportedModelError.
var ErrUnsupportedModel = errors.New("unsupported tokenizer model")

// UnsupportedModelError reports a scheme name that no tokenizer knows.
type UnsupportedModelError struct {
	Scheme string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported tokenizer scheme %q", e.Scheme)
}

func (e *UnsupportedModelError) Is(target error) bool { return target == ErrUnsupportedModel }

// Tokenizer measures text length in tokens.
// Implementations are deterministic and safe for concurrent use.
type Tokenizer interface {
	Count(text string) int
	Scheme() string
}

// New resolves a scheme name to a Tokenizer.
// Accepts SchemeWords, an OpenAI model name (gpt-4o-mini) or an encoding name (o200k_base).
func New(scheme string) (Tokenizer, error) {
	scheme = strings.TrimSpace(scheme)
	if scheme == SchemeWords {
		return Words{}, nil
	}

	encoding, ok := encodingFor(scheme)
	if !ok {
		return nil, &UnsupportedModelError{Scheme: scheme}
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding for %q: %w", encoding, scheme, err)
	}
	return &BPE{scheme: scheme, enc: enc}, nil
}

var encodings = map[string]bool{
	tiktoken.MODEL_O200K_BASE:  true,
	tiktoken.MODEL_CL100K_BASE: true,
	tiktoken.MODEL_P50K_BASE:   true,
	tiktoken.MODEL_P50K_EDIT:   true,
	tiktoken.MODEL_R50K_BASE:   true,
}

// encodingFor maps a model or encoding name to an encoding name.
func encodingFor(scheme string) (string, bool) {
	if scheme == "" {
		return "", false
	}
	if encodings[scheme] {
		return scheme, true
	}
	if enc, ok := tiktoken.MODEL_TO_ENCODING[scheme]; ok {
		return enc, true
	}
	for prefix, enc := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(scheme, prefix) {
			return enc, true
		}
	}
	return "", false
}

// BPE counts tokens with the byte-pair encoding a model uses.
type BPE struct {
	scheme string
	enc    *tiktoken.Tiktoken
}

func (b *BPE) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(b.enc.Encode(text, nil, nil))
}

func (b *BPE) Scheme() string { return b.scheme }

// Words counts runs of letters and digits as one token each and every
// other non-space rune as its own token.
type Words struct{}

func (Words) Count(text string) int {
	n := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if !inWord {
				n++
				inWord = true
			}
		case unicode.IsSpace(r):
			inWord = false
		default:
			n++
			inWord = false
		}
	}
	return n
}

func (Words) Scheme() string { return SchemeWords }

// Message is the minimal view of a chat message needed for counting.
type Message interface {
	Text() string
}

// CountMessages counts the space-joined content of a message list.
func CountMessages[M Message](tok Tokenizer, messages []M) int {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Text()
	}
	return tok.Count(strings.Join(parts, " "))
}
