// Package tokenutil provides token counting for the memory coordinator's
// context-budget enforcement, replacing the teacher's ad hoc
// word-counting with a real tokenizer.
package tokenutil

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens against a fixed encoding, lazily initialized and
// reused across requests since construction is comparatively expensive.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewCounter creates a Counter backed by the cl100k_base encoding, a
// reasonable approximation for both the large and small model tiers used
// here.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) encoding() (*tiktoken.Tiktoken, error) {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("cl100k_base")
	})
	return c.enc, c.err
}

// Count returns the token count of s, or a whitespace-split word-count
// fallback if the encoder failed to initialize.
func (c *Counter) Count(s string) int {
	enc, err := c.encoding()
	if err != nil {
		return fallbackWordCount(s)
	}
	return len(enc.Encode(s, nil, nil))
}

// Truncate returns the prefix of s containing at most maxTokens tokens.
func (c *Counter) Truncate(s string, maxTokens int) string {
	enc, err := c.encoding()
	if err != nil {
		return fallbackTruncate(s, maxTokens)
	}
	tokens := enc.Encode(s, nil, nil)
	if len(tokens) <= maxTokens {
		return s
	}
	return enc.Decode(tokens[:maxTokens])
}

func fallbackWordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\n' || r == '\t'
		if !isSpace && !inWord {
			count++
			inWord = true
		} else if isSpace {
			inWord = false
		}
	}
	return count
}

func fallbackTruncate(s string, maxTokens int) string {
	approxChars := maxTokens * 4
	if len(s) <= approxChars {
		return s
	}
	return s[:approxChars]
}
