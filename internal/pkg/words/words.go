// Package words draws human-friendly codes from an embedded dictionary.
package words

import (
	"crypto/rand"
	_ "embed"
	"fmt"
	"math/big"
	"strings"
)

//go:embed wordlist.txt
var wordlist string

var dictionary = strings.Fields(wordlist)

// Code returns n dictionary words chosen uniformly at random, joined by "-".
func Code(n int) (string, error) {
	max := big.NewInt(int64(len(dictionary)))
	picked := make([]string, n)
	for i := range picked {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("pick word: %w", err)
		}
		picked[i] = dictionary[idx.Int64()]
	}
	return strings.Join(picked, "-"), nil
}
