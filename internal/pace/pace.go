// Package pace implements the word-by-word chunking and timing used to
// re-serve a complete assistant reply as a human-paced stream. The same
// algorithm drives the HTTP proxy and any local simulator, so emission
// behavior is deterministic wherever it runs.
package pace

import (
	"strings"
	"time"
	"unicode"
)

// Defaults for Options fields left at their zero value.
const (
	DefaultChunkSize       = 8
	DefaultFastStartTokens = 6
	DefaultFastDelay       = 20 * time.Millisecond
	DefaultBaseDelay       = 60 * time.Millisecond
	DefaultSentencePause   = 220 * time.Millisecond
	DefaultParagraphPause  = 360 * time.Millisecond
)

// Options control token splitting and emission timing.
type Options struct {
	// ChunkSize is the maximum rune length of a non-whitespace token.
	ChunkSize int
	// FastStartTokens is how many leading tokens use FastDelay, so the
	// reply feels immediately responsive before settling into BaseDelay.
	FastStartTokens int
	FastDelay       time.Duration
	BaseDelay       time.Duration
	// SentencePause is added after a token ending in sentence punctuation
	// or containing a single newline.
	SentencePause time.Duration
	// ParagraphPause is added after a token containing a paragraph break.
	ParagraphPause time.Duration
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.FastStartTokens <= 0 {
		o.FastStartTokens = DefaultFastStartTokens
	}
	if o.FastDelay <= 0 {
		o.FastDelay = DefaultFastDelay
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.SentencePause <= 0 {
		o.SentencePause = DefaultSentencePause
	}
	if o.ParagraphPause <= 0 {
		o.ParagraphPause = DefaultParagraphPause
	}
	return o
}

// Tokens splits text into maximal whitespace and non-whitespace runs,
// then slices any non-whitespace run longer than chunkSize runes into
// chunkSize-rune pieces (the last piece may be shorter). Concatenating
// the result in order reconstructs text exactly.
func Tokens(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	tokens := make([]string, 0, len(runes)/4+1)

	start := 0
	inSpace := unicode.IsSpace(runes[0])
	flush := func(end int) {
		run := runes[start:end]
		if inSpace {
			tokens = append(tokens, string(run))
			return
		}
		for len(run) > chunkSize {
			tokens = append(tokens, string(run[:chunkSize]))
			run = run[chunkSize:]
		}
		if len(run) > 0 {
			tokens = append(tokens, string(run))
		}
	}

	for i := 1; i < len(runes); i++ {
		if unicode.IsSpace(runes[i]) != inSpace {
			flush(i)
			start = i
			inSpace = !inSpace
		}
	}
	flush(len(runes))

	return tokens
}

// DelayAfter computes how long to wait after emitting the token at the
// given zero-based index before emitting the next one.
func (o Options) DelayAfter(token string, index int) time.Duration {
	o = o.withDefaults()

	delay := o.BaseDelay
	if index < o.FastStartTokens {
		delay = o.FastDelay
	}

	switch {
	case strings.Contains(token, "\n\n"):
		delay += o.ParagraphPause
	case endsSentence(token) || strings.Contains(token, "\n"):
		delay += o.SentencePause
	}

	return delay
}

func endsSentence(token string) bool {
	if token == "" {
		return false
	}
	switch token[len(token)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// Stream iterates a text's pacing tokens together with the delay to
// sleep after each. It holds no timers itself; the transport owns the
// clock and the cancellation signal.
type Stream struct {
	opts   Options
	tokens []string
	next   int
}

// New builds a Stream over text with the supplied options.
func New(text string, opts Options) *Stream {
	o := opts.withDefaults()
	return &Stream{
		opts:   o,
		tokens: Tokens(text, o.ChunkSize),
	}
}

// Next returns the next token and the delay to apply after writing it.
// ok is false once the stream is exhausted.
func (s *Stream) Next() (token string, delay time.Duration, ok bool) {
	if s.next >= len(s.tokens) {
		return "", 0, false
	}
	token = s.tokens[s.next]
	delay = s.opts.DelayAfter(token, s.next)
	s.next++
	return token, delay, true
}

// Len reports the total number of tokens the stream will emit.
func (s *Stream) Len() int {
	return len(s.tokens)
}
