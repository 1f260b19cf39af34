package lts

import "go.uber.org/zap"

// DefaultTolerance is the absolute tolerance used when comparing probabilities.
const DefaultTolerance = 1e-9

// FinalPolicy decides when the composer converges on the global Final composite state.
type FinalPolicy uint8

const (
	// FinalOnAny converges as soon as any member has a probability 1 transition into its Final state.
	FinalOnAny FinalPolicy = iota
	// FinalOnAll converges only when every member has a transition into its Final state.
	FinalOnAll
)

func (p FinalPolicy) String() string {
	if p == FinalOnAll {
		return "all"
	}
	return "any"
}

type options struct {
	tolerance   float64
	finalPolicy FinalPolicy
	logger      *zap.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{
		tolerance:   DefaultTolerance,
		finalPolicy: FinalOnAny,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type Option func(o *options)

// WithTolerance sets the absolute tolerance for probability comparisons.
func WithTolerance(tolerance float64) Option {
	return func(o *options) {
		if tolerance > 0 {
			o.tolerance = tolerance
		}
	}
}

// WithFinalPolicy selects the convergence rule of the composer.
func WithFinalPolicy(policy FinalPolicy) Option {
	return func(o *options) {
		o.finalPolicy = policy
	}
}

// WithLogger sets the logger, nil keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
