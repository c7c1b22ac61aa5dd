package utils

import (
	"math/rand"
)

const randChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandString returns a random lowercase alphanumeric string of length n,
// used for slug suffixes.
func RandString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randChars[rand.Intn(len(randChars))]
	}
	return string(b)
}
