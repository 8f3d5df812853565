// Package textgen continues a piece of prose with a language model.
package textgen

import (
	"context"
	"errors"
	"strings"
)

// ErrGeneration is returned when no attempt produced text.
var ErrGeneration = errors.New("text generation failed")

// Generator writes about length tokens continuing context.
type Generator interface {
	Generate(ctx context.Context, context string, length int) (string, error)
}

const endOfText = "<|endoftext|>"

func clean(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, endOfText, " "))
}

// shrink drops the first quarter of the space-separated words of context.
func shrink(context string) string {
	words := strings.Split(context, " ")
	return strings.Join(words[(len(words)-1)/4:], " ")
}
