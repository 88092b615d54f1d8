package mixture

import (
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/mat"

	"github.com/scribblekit/mixcut/pkg/errors"
)

// DefaultInitialStdDev is the per-channel standard deviation of the
// isotropic covariance every component starts from.
const DefaultInitialStdDev = 128.0

// MaxPaletteComponents is the number of canonical colors the palette
// initializer defines. Requests beyond it have no defined starting point.
const MaxPaletteComponents = 8

// Initializer produces the initial per-component means and covariances for
// one class's solver run. Fitter calls it once per class with that class's
// samples; a warm start bypasses it entirely.
type Initializer interface {
	Init(samples mat.Matrix, nComponents int) ([]*mat.VecDense, []*mat.SymDense, error)
}

// initPalette is the ordered palette of canonical colors used as default
// component centers: black, red, green, blue, white, cyan, magenta,
// yellow. Channels are in [0, 1] and scaled to [0, 255] at use.
var initPalette = []colorful.Color{
	{R: 0, G: 0, B: 0},
	{R: 1, G: 0, B: 0},
	{R: 0, G: 1, B: 0},
	{R: 0, G: 0, B: 1},
	{R: 1, G: 1, B: 1},
	{R: 0, G: 1, B: 1},
	{R: 1, G: 0, B: 1},
	{R: 1, G: 1, B: 0},
}

// PaletteInitializer seeds component means from the canonical color
// palette, truncated to the requested component count, with an isotropic
// covariance of StdDev per channel. It is the default and assumes
// 3-channel color features.
type PaletteInitializer struct {
	StdDev float64
}

// NewPaletteInitializer returns a PaletteInitializer with the default
// standard deviation.
func NewPaletteInitializer() *PaletteInitializer {
	return &PaletteInitializer{StdDev: DefaultInitialStdDev}
}

// Init returns the first nComponents palette entries as means. The sample
// content is ignored; only its dimensionality is validated against the
// palette's color space.
func (p *PaletteInitializer) Init(samples mat.Matrix, nComponents int) ([]*mat.VecDense, []*mat.SymDense, error) {
	if nComponents > MaxPaletteComponents {
		return nil, nil, errors.NewUnsupportedConfigError(
			"components", "palette defines at most 8 initial centers; supply a warm start or another initializer", nComponents)
	}
	_, nDim := samples.Dims()
	if nDim != 3 {
		return nil, nil, errors.NewUnsupportedConfigError(
			"samples", "palette initialization requires 3 color channels", nDim)
	}

	means := make([]*mat.VecDense, nComponents)
	covs := make([]*mat.SymDense, nComponents)
	for k := 0; k < nComponents; k++ {
		col := initPalette[k]
		means[k] = mat.NewVecDense(3, []float64{col.R * 255, col.G * 255, col.B * 255})
		covs[k] = isotropicCov(3, p.StdDev)
	}
	return means, covs, nil
}

// KMeansInitializer seeds component means from a k-means partition of the
// class's own samples. Unlike the palette it works in any feature space
// and adapts to the data, at the cost of a clustering pass per class.
type KMeansInitializer struct {
	StdDev float64
}

// NewKMeansInitializer returns a KMeansInitializer with the default
// standard deviation.
func NewKMeansInitializer() *KMeansInitializer {
	return &KMeansInitializer{StdDev: DefaultInitialStdDev}
}

// Init partitions the samples into nComponents clusters and uses the
// cluster centers as initial means.
func (p *KMeansInitializer) Init(samples mat.Matrix, nComponents int) ([]*mat.VecDense, []*mat.SymDense, error) {
	nSamples, nDim := samples.Dims()
	if nComponents > nSamples {
		return nil, nil, errors.NewValidationError(
			"components", "k-means initialization needs at least one sample per component", nComponents)
	}

	dataset := make(clusters.Observations, 0, nSamples)
	for i := 0; i < nSamples; i++ {
		dataset = append(dataset, clusters.Coordinates(mat.Row(nil, i, samples)))
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, nComponents)
	if err != nil {
		return nil, nil, errors.Wrap(err, "k-means initialization")
	}
	if len(cc) != nComponents {
		return nil, nil, errors.Newf("k-means initialization returned %d clusters, want %d", len(cc), nComponents)
	}

	means := make([]*mat.VecDense, nComponents)
	covs := make([]*mat.SymDense, nComponents)
	for k, c := range cc {
		center := make([]float64, nDim)
		copy(center, c.Center)
		means[k] = mat.NewVecDense(nDim, center)
		covs[k] = isotropicCov(nDim, p.StdDev)
	}
	return means, covs, nil
}

func isotropicCov(nDim int, stddev float64) *mat.SymDense {
	cov := mat.NewSymDense(nDim, nil)
	for j := 0; j < nDim; j++ {
		cov.SetSym(j, j, stddev*stddev)
	}
	return cov
}
