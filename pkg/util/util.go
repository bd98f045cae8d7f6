package util

import (
	"math"
	"strings"

	"golang.org/x/exp/rand"
)

func RoundFloat(val float64, precision uint) float64 {
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return val
	}
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy )
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

// RandomString. n runes drawn uniformly from letters.
func RandomString(r *rand.Rand, letters string, n int) string {
	runes := []rune(letters)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteRune(runes[r.Intn(len(runes))])
	}
	return sb.String()
}
