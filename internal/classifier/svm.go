package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tphakala/microbe-go/internal/errors"
)

const (
	svmTolerance  = 1e-3
	svmMinQuad    = 1e-12
	svmMinMaxIter = 10_000_000
	svmCacheLimit = 1 << 25 // kernel cache entries, roughly 256 MiB of float64
)

// SVC is a support vector classifier with an RBF kernel. Multiclass problems
// are split into one binary machine per class pair and decided by majority
// vote.
type SVC struct {
	C          float64
	Gamma      float64 // 0 makes Fit pick 1 / (features * variance of the training set)
	NumClasses int
	Vectors    [][]float64
	Machines   []SVMachine
}

// SVMachine separates class Pos (positive decision) from class Neg. Index
// points into the owning SVC's Vectors.
type SVMachine struct {
	Pos, Neg int
	Index    []int
	Coef     []float64
	Rho      float64
}

// NewSVC returns an untrained classifier.
func NewSVC(p Params) *SVC {
	return &SVC{C: p.C, Gamma: p.Gamma}
}

func (m *SVC) Fit(x [][]float64, y []int, numClasses int) error {
	if err := checkTrainingSet(x, y, numClasses); err != nil {
		return err
	}
	if m.C <= 0 || m.Gamma < 0 {
		return errors.Newf("svm needs C > 0 and gamma >= 0, got C=%g gamma=%g", m.C, m.Gamma).
			Component(componentName).
			Category(errors.CategoryValidation).
			Build()
	}
	gamma := m.Gamma
	if gamma == 0 {
		gamma = scaleGamma(x)
	}

	byClass := make([][]int, numClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	// Support vectors are shared between machines, keyed by training index.
	vectorAt := map[int]int{}
	var vectors [][]float64
	machines := make([]SVMachine, 0, numClasses*(numClasses-1)/2)

	for a := range numClasses {
		for b := a + 1; b < numClasses; b++ {
			mc := SVMachine{Pos: a, Neg: b}
			switch {
			case len(byClass[b]) == 0:
				mc.Rho = -1
			case len(byClass[a]) == 0:
				mc.Rho = 1
			default:
				idx := append(append([]int(nil), byClass[a]...), byClass[b]...)
				sub := make([][]float64, len(idx))
				sign := make([]float64, len(idx))
				for k, i := range idx {
					sub[k] = x[i]
					sign[k] = -1
					if y[i] == a {
						sign[k] = 1
					}
				}
				alpha, rho := newSMO(sub, sign, m.C, gamma).solve()
				mc.Rho = rho
				for k, al := range alpha {
					if al <= 0 {
						continue
					}
					v, ok := vectorAt[idx[k]]
					if !ok {
						v = len(vectors)
						vectorAt[idx[k]] = v
						vectors = append(vectors, x[idx[k]])
					}
					mc.Index = append(mc.Index, v)
					mc.Coef = append(mc.Coef, al*sign[k])
				}
			}
			machines = append(machines, mc)
		}
	}

	m.Gamma = gamma
	m.NumClasses = numClasses
	m.Vectors = vectors
	m.Machines = machines
	return nil
}

// Decision returns the signed distance of x from machine i's boundary.
// Positive values favour the machine's Pos class.
func (m *SVC) Decision(i int, x []float64) float64 {
	mc := m.Machines[i]
	d := -mc.Rho
	for k, v := range mc.Index {
		d += mc.Coef[k] * rbf(m.Vectors[v], x, m.Gamma)
	}
	return d
}

// PredictProba returns each class's share of the pairwise votes.
func (m *SVC) PredictProba(x []float64) []float64 {
	proba := make([]float64, m.NumClasses)
	if m.NumClasses == 1 {
		proba[0] = 1
		return proba
	}
	for i, mc := range m.Machines {
		if m.Decision(i, x) > 0 {
			proba[mc.Pos]++
		} else {
			proba[mc.Neg]++
		}
	}
	floats.Scale(1/float64(len(m.Machines)), proba)
	return proba
}

func rbf(a, b []float64, gamma float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-gamma * d * d)
}

func scaleGamma(x [][]float64) float64 {
	all := make([]float64, 0, len(x)*len(x[0]))
	for _, row := range x {
		all = append(all, row...)
	}
	v := stat.PopVariance(all, nil)
	if v == 0 {
		return 1
	}
	return 1 / (float64(len(x[0])) * v)
}

// smo solves the binary soft-margin dual
//
//	min ½ αᵀQα − Σα  subject to  yᵀα = 0, 0 ≤ α ≤ C
//
// with Q_ij = y_i y_j K(x_i, x_j), updating the maximal violating pair on
// each step.
type smo struct {
	x       [][]float64
	y       []float64
	c       float64
	gamma   float64
	alpha   []float64
	grad    []float64
	cache   map[int][]float64
	maxRows int
}

func newSMO(x [][]float64, y []float64, c, gamma float64) *smo {
	n := len(x)
	s := &smo{
		x:       x,
		y:       y,
		c:       c,
		gamma:   gamma,
		alpha:   make([]float64, n),
		grad:    make([]float64, n),
		cache:   map[int][]float64{},
		maxRows: max(2, svmCacheLimit/max(n, 1)),
	}
	for i := range s.grad {
		s.grad[i] = -1
	}
	return s
}

// row returns Q_i, computing it on demand. The cache is dropped whole when
// full.
func (s *smo) row(i int) []float64 {
	if r, ok := s.cache[i]; ok {
		return r
	}
	if len(s.cache) >= s.maxRows {
		clear(s.cache)
	}
	r := make([]float64, len(s.x))
	for j := range r {
		r[j] = s.y[i] * s.y[j] * rbf(s.x[i], s.x[j], s.gamma)
	}
	s.cache[i] = r
	return r
}

func (s *smo) upper(t int) bool { return s.alpha[t] >= s.c }
func (s *smo) lower(t int) bool { return s.alpha[t] <= 0 }

// selectPair returns the maximal violating pair, or -1 once the duality gap
// is within tolerance.
func (s *smo) selectPair() (int, int) {
	gmax, gmin := math.Inf(-1), math.Inf(1)
	i, j := -1, -1
	for t := range s.alpha {
		v := -s.y[t] * s.grad[t]
		if (s.y[t] > 0 && !s.upper(t)) || (s.y[t] < 0 && !s.lower(t)) {
			if v >= gmax {
				gmax, i = v, t
			}
		}
		if (s.y[t] > 0 && !s.lower(t)) || (s.y[t] < 0 && !s.upper(t)) {
			if v <= gmin {
				gmin, j = v, t
			}
		}
	}
	if i < 0 || j < 0 || gmax-gmin < svmTolerance {
		return -1, -1
	}
	return i, j
}

func (s *smo) solve() ([]float64, float64) {
	maxIter := max(svmMinMaxIter, 100*len(s.x))
	for range maxIter {
		i, j := s.selectPair()
		if i < 0 {
			break
		}
		s.update(i, j)
	}
	return s.alpha, s.rho()
}

// update optimises alpha_i and alpha_j analytically and clips them back into
// the box while keeping yᵀα fixed.
func (s *smo) update(i, j int) {
	qi, qj := s.row(i), s.row(j)
	c := s.c
	oldI, oldJ := s.alpha[i], s.alpha[j]
	ai, aj := oldI, oldJ

	if s.y[i] != s.y[j] {
		quad := max(qi[i]+qj[j]+2*qi[j], svmMinQuad)
		delta := (-s.grad[i] - s.grad[j]) / quad
		diff := ai - aj
		ai += delta
		aj += delta
		if diff > 0 {
			if aj < 0 {
				aj, ai = 0, diff
			}
		} else if ai < 0 {
			ai, aj = 0, -diff
		}
		if diff > 0 {
			if ai > c {
				ai, aj = c, c-diff
			}
		} else if aj > c {
			aj, ai = c, c+diff
		}
	} else {
		quad := max(qi[i]+qj[j]-2*qi[j], svmMinQuad)
		delta := (s.grad[i] - s.grad[j]) / quad
		sum := ai + aj
		ai -= delta
		aj += delta
		if sum > c {
			if ai > c {
				ai, aj = c, sum-c
			}
		} else if aj < 0 {
			aj, ai = 0, sum
		}
		if sum > c {
			if aj > c {
				aj, ai = c, sum-c
			}
		} else if ai < 0 {
			ai, aj = 0, sum
		}
	}

	s.alpha[i], s.alpha[j] = ai, aj
	di, dj := ai-oldI, aj-oldJ
	for t := range s.grad {
		s.grad[t] += qi[t]*di + qj[t]*dj
	}
}

// rho is the bias: the mean of y·G over free vectors, or the midpoint of the
// feasible interval when every alpha sits on a bound.
func (s *smo) rho() float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sum, free := 0.0, 0
	for t := range s.alpha {
		yg := s.y[t] * s.grad[t]
		switch {
		case s.upper(t):
			if s.y[t] < 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		case s.lower(t):
			if s.y[t] > 0 {
				ub = min(ub, yg)
			} else {
				lb = max(lb, yg)
			}
		default:
			sum += yg
			free++
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
