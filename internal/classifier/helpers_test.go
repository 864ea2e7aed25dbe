package classifier

import "math/rand/v2"

// blobs returns perClass samples for each of k well separated square clusters
// in two dimensions, interleaved by class.
func blobs(k, perClass int, seed uint64) (x [][]float64, y []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	for range perClass {
		for c := range k {
			cx, cy := float64(c*10), float64((c%2)*10)
			x = append(x, []float64{cx + rng.Float64()*4 - 2, cy + rng.Float64()*4 - 2})
			y = append(y, c)
		}
	}
	return x, y
}

func accuracy(c Classifier, x [][]float64, y []int) float64 {
	correct := 0
	for i := range x {
		if Predict(c, x[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}
