// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package chunk

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// TokenCounter reports the token length of a text under the model
// tokenizer.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// SentenceSplitter segments a document into sentences. Splitting quality
// is delegated to the implementation; the chunker only relies on the
// returned order.
type SentenceSplitter interface {
	Sentences(text string) []string
}

// RegexSplitter is a simple sentence boundary detector splitting after
// runs of '.', '!' and '?'. Abbreviations will confuse it; callers that
// care supply their own [SentenceSplitter].
type RegexSplitter struct {
	re *regexp.Regexp
}

func NewRegexSplitter() *RegexSplitter {
	return &RegexSplitter{
		re: regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+$`),
	}
}

func (s *RegexSplitter) Sentences(text string) []string {
	matches := s.re.FindAllString(text, -1)

	sentences := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		sentences = append(sentences, m)
	}
	return sentences
}

// Chunker splits documents into chunks that respect a token budget while
// never breaking a sentence.
type Chunker struct {
	splitter SentenceSplitter
	counter  TokenCounter
}

func NewChunker(splitter SentenceSplitter, counter TokenCounter) *Chunker {
	return &Chunker{
		splitter: splitter,
		counter:  counter,
	}
}

// Split greedily accumulates sentences until adding the next one would
// exceed budget, then flushes the accumulator as one chunk. Sentences in a
// chunk are joined with a single space. A single sentence longer than
// budget still becomes its own chunk, exceeding the nominal budget; this
// is accepted behavior, chunks are sentence-aligned before anything else.
func (c *Chunker) Split(ctx context.Context, document string, budget int) ([]string, error) {
	sentences := c.splitter.Sentences(document)

	var chunks []string
	var acc []string
	running := 0

	for _, sentence := range sentences {
		n, err := c.counter.CountTokens(ctx, sentence)
		if err != nil {
			return nil, fmt.Errorf("failed to count sentence tokens: %w", err)
		}

		if running+n > budget && len(acc) > 0 {
			chunks = append(chunks, strings.Join(acc, " "))
			acc = []string{sentence}
			running = n
		} else {
			acc = append(acc, sentence)
			running += n
		}
	}

	if len(acc) > 0 {
		chunks = append(chunks, strings.Join(acc, " "))
	}
	return chunks, nil
}
