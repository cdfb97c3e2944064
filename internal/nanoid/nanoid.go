// Package nanoid generates the random identifiers used for upload and
// download filenames.
package nanoid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the 62-symbol alphanumeric set; every character is drawn
// uniformly from it.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	// FileIDLength is used for uploaded file names.
	FileIDLength = 21
	// SuffixLength is used for downloaded file names.
	SuffixLength = 8
)

// Generator returns a random identifier of the requested length.
type Generator func(length int) (string, error)

// New draws length characters from Alphabet.
func New(length int) (string, error) {
	return gonanoid.Generate(Alphabet, length)
}

// Must is New for callers that cannot recover from an entropy failure.
func Must(length int) string {
	id, err := New(length)
	if err != nil {
		panic(err)
	}
	return id
}
