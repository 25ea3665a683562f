package fold

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/treecut"
)

// Cut selectors.
const (
	SelectorBottomUp   = "bottomup"
	SelectorExhaustive = "exhaustive"
)

// Elementary interval builders.
const (
	IntervalsPairs = "pairs"
	IntervalsChunk = "chunk"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("fold: invalid request")

var requestValidate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.RegisterValidation("fold_method", func(fl validator.FieldLevel) bool {
		_, parseErr := mdl.ParseMethod(fl.Field().String(), mdl.Rising)

		return parseErr == nil
	})
	if err != nil {
		panic(fmt.Sprintf("fold: register fold_method validation: %v", err))
	}

	return v
}

// Request describes one segmentation run. The zero value folds adjacent
// pairs with the logistic loss model in the rising direction and selects the
// cut bottom-up without a depth bound.
type Request struct {
	Method    string `json:"method,omitempty"     validate:"omitempty,fold_method"`
	Direction string `json:"direction,omitempty"  validate:"omitempty,oneof=rising falling"`
	Selector  string `json:"selector,omitempty"   validate:"omitempty,oneof=bottomup exhaustive"`
	// MaxDepth bounds bottom-up selection below the root; nil means unbounded.
	MaxDepth  *int   `json:"max_depth,omitempty"  validate:"omitempty,gte=0"`
	Intervals string `json:"intervals,omitempty"  validate:"omitempty,oneof=pairs chunk"`
	ChunkSize int    `json:"chunk_size,omitempty" validate:"required_if=Intervals chunk,omitempty,gte=2"`
	// MaxLeaves caps exhaustive search; zero means the treecut default. It
	// can never exceed treecut.MaxLeavesCeiling.
	MaxLeaves int `json:"max_leaves,omitempty" validate:"gte=0,lte=20"`
}

// Plan is a validated Request with its cost model resolved.
type Plan struct {
	Model     mdl.Model
	Method    string
	Selector  string
	MaxDepth  int
	Intervals string
	ChunkSize int
	MaxLeaves int
}

// Validate checks field constraints.
func (r Request) Validate() error {
	err := requestValidate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

// Resolve validates r and fills defaults.
func (r Request) Resolve() (Plan, error) {
	err := r.Validate()
	if err != nil {
		return Plan{}, err
	}

	direction, err := mdl.ParseDirection(r.Direction)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	model, err := mdl.ParseMethod(r.Method, direction)
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	plan := Plan{
		Model:     model,
		Method:    model.Name(),
		Selector:  r.Selector,
		MaxDepth:  treecut.Unlimited,
		Intervals: r.Intervals,
		ChunkSize: r.ChunkSize,
		MaxLeaves: r.MaxLeaves,
	}

	if plan.Selector == "" {
		plan.Selector = SelectorBottomUp
	}

	if plan.Intervals == "" {
		plan.Intervals = IntervalsPairs
	}

	if plan.Intervals == IntervalsPairs {
		plan.ChunkSize = 2
	}

	if r.MaxDepth != nil {
		plan.MaxDepth = *r.MaxDepth
	}

	return plan, nil
}
