// Package nlp extracts vocabulary and sentences from free text.
package nlp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// Analyzer tokenizes English text and reduces words to dictionary lemmas.
type Analyzer struct {
	lemmatizer *golem.Lemmatizer
}

func NewAnalyzer() (*Analyzer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemmatizer: %w", err)
	}
	return &Analyzer{lemmatizer: lemmatizer}, nil
}

// WordCount counts the vocabulary words of each description: alphabetic,
// non-stop-word tokens whose lower-cased lemma is an English dictionary word.
func (a *Analyzer) WordCount(descriptions ...string) (map[string]int, error) {
	count := map[string]int{}
	for _, description := range descriptions {
		text := PlainText(description)
		if text == "" {
			continue
		}
		doc, err := prose.NewDocument(text,
			prose.WithTagging(false),
			prose.WithExtraction(false),
			prose.WithSegmentation(false),
		)
		if err != nil {
			return nil, fmt.Errorf("tokenize description: %w", err)
		}
		for _, tok := range doc.Tokens() {
			word := strings.ToLower(tok.Text)
			if !isAlpha(word) || IsStopWord(word) {
				continue
			}
			lemma := strings.ToLower(a.lemmatizer.Lemma(word))
			if IsStopWord(lemma) || !a.lemmatizer.InDict(lemma) {
				continue
			}
			count[lemma]++
		}
	}
	return count, nil
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Sentences splits text into sentences.
func Sentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, fmt.Errorf("segment text: %w", err)
	}
	sents := doc.Sentences()
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// TrimDangling drops the last, possibly unfinished, sentence of generated
// text.
func TrimDangling(text string) (string, error) {
	sents, err := Sentences(text)
	if err != nil {
		return "", err
	}
	if len(sents) <= 1 {
		return "", nil
	}
	return strings.Join(sents[:len(sents)-1], " "), nil
}

var tokenWithSpace = regexp.MustCompile(`\S+\s*`)

// Tokens splits text into words that keep their trailing whitespace, so
// joining any suffix of the result reproduces that part of the text.
func Tokens(text string) []string {
	return tokenWithSpace.FindAllString(text, -1)
}

// LastTokens returns the tail of text made of at most n tokens.
func LastTokens(text string, n int) string {
	toks := Tokens(text)
	if len(toks) > n {
		toks = toks[len(toks)-n:]
	}
	return strings.Join(toks, "")
}
