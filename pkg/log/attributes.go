// Standard attribute keys for fitting and scoring log records. Using these
// keys keeps per-class fan-out logs filterable by class, cycle and shape.

package log

// Operation context.
const (
	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "score", "init".
	OperationKey = "mix.operation"

	// ClassKey identifies the class whose mixture is being fitted.
	ClassKey = "mix.class"

	// CycleKey indicates the EM cycle index within a class fit.
	CycleKey = "mix.cycle"

	// ComponentsKey indicates the mixture component count.
	ComponentsKey = "mix.components"
)

// Data shape.
const (
	// SamplesKey indicates the number of samples (rows) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the feature dimensionality (columns).
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of classes in a fit.
	ClassesKey = "data.classes"
)

// Performance.
const (
	// DurationMsKey records elapsed wall time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
