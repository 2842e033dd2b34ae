package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cognicore/emodetect/pkg/emodetect/internalerr"
)

// Split shuffles items with a PCG source seeded by seed and cuts off the
// test share. The test set holds ceil(testFraction*len(items)) items; the
// rest go to train. The same input and seed always give the same partition.
//
// The input slice is not modified.
func Split[T any](items []T, testFraction float64, seed int64) (train, test []T, err error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("test fraction %v outside (0,1): %w", testFraction, internalerr.ErrConfig)
	}

	n := len(items)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if n > 0 && nTest >= n {
		return nil, nil, fmt.Errorf("test fraction %v leaves no training items out of %d: %w", testFraction, n, internalerr.ErrInvalidInput)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	rng.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	test = make([]T, 0, nTest)
	train = make([]T, 0, n-nTest)
	for k, idx := range perm {
		if k < nTest {
			test = append(test, items[idx])
		} else {
			train = append(train, items[idx])
		}
	}
	return train, test, nil
}
