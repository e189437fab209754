package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce  sync.Once
	encoding *tiktoken.Tiktoken
)

// loadEncoding is lazy: the BPE ranks may have to be fetched on first use.
func loadEncoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Warn("cl100k_base unavailable, estimating tokens: %v", err)
			return
		}
		encoding = enc
	})
	return encoding
}

// CountTokens counts text with cl100k_base, falling back to EstimateTokens.
func CountTokens(text string) int {
	if enc := loadEncoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// EstimateTokens is max(runes/4, words), at least 1 for non-blank text.
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}

// messageOverhead approximates the per-message framing tokens.
const messageOverhead = 4

// CountMessageTokens sums the tokens of every message including tool calls.
func CountMessageTokens(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead + CountTokens(m.Content)
		for _, tc := range m.ToolCalls {
			total += CountTokens(tc.Name) + CountTokens(tc.RawArguments)
		}
	}
	return total
}
