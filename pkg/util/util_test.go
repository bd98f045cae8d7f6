package util

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestReverseG(t *testing.T) {
	arr := []int{1, 2, 3, 4}
	rev := ReverseG(arr)
	assert.Equal(t, []int{4, 3, 2, 1}, rev)
	assert.Equal(t, []int{1, 2, 3, 4}, arr)
	assert.Empty(t, ReverseG([]string{}))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 3.142, RoundFloat(math.Pi, 3))
	assert.True(t, math.IsInf(RoundFloat(math.Inf(-1), 3), -1))
}

func TestRandomString(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := RandomString(r, "ACGT", 50)
	assert.Len(t, s, 50)
	for _, c := range s {
		assert.True(t, strings.ContainsRune("ACGT", c))
	}

	again := RandomString(rand.New(rand.NewSource(1)), "ACGT", 50)
	assert.Equal(t, s, again)
}
