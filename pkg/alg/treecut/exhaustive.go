package treecut

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

// DefaultMaxLeaves bounds the tree size Exhaustive accepts by default. A
// balanced tree with 16 leaves has 677 cuts; 32 leaves already exceed 450k.
const DefaultMaxLeaves = 16

// MaxLeavesCeiling is the largest leaf limit callers outside the process may
// request. A balanced tree of this size has about 26k cuts.
const MaxLeavesCeiling = 20

// ErrTreeTooLarge indicates Exhaustive was asked to search a tree above its limit.
var ErrTreeTooLarge = errors.New("treecut: tree too large for exhaustive search")

// Scorer assigns a score to a complete cut; lower is better.
type Scorer interface {
	Score(cut []*mergetree.Node) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(cut []*mergetree.Node) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(cut []*mergetree.Node) (float64, error) {
	return f(cut)
}

// SumScorer scores a cut by its total descriptive length, the same target
// Select minimizes.
type SumScorer struct {
	Model mergetree.CostModel
}

// Score implements Scorer.
func (s SumScorer) Score(cut []*mergetree.Node) (float64, error) {
	return Total(cut, s.Model)
}

// ExhaustiveOptions configures Exhaustive.
type ExhaustiveOptions struct {
	// Scorer defaults to SumScorer over the model passed to Exhaustive.
	Scorer Scorer
	// MaxLeaves defaults to DefaultMaxLeaves. Negative disables the limit.
	MaxLeaves int
}

// Result is the outcome of an exhaustive search.
type Result struct {
	Cut []*mergetree.Node
	// Score is the scorer's value for Cut.
	Score float64
	// Visited counts the distinct configurations scored.
	Visited int
}

// Exhaustive enumerates every cut reachable from [root] by repeatedly
// expanding one internal node into its two children, and returns the
// configuration with the lowest score. Earlier configurations win ties.
// The search stops with ctx.Err() once ctx is done.
func Exhaustive(ctx context.Context, root *mergetree.Node, model mergetree.CostModel, opts ExhaustiveOptions) (Result, error) {
	if root == nil {
		return Result{}, ErrNilRoot
	}

	limit := opts.MaxLeaves
	if limit == 0 {
		limit = DefaultMaxLeaves
	}

	if limit > 0 && root.Leaves() > limit {
		return Result{}, fmt.Errorf("%w: %d leaves (max %d)", ErrTreeTooLarge, root.Leaves(), limit)
	}

	scorer := opts.Scorer
	if scorer == nil {
		scorer = SumScorer{Model: model}
	}

	s := &search{ctx: ctx, scorer: scorer, seen: make(map[string]struct{})}

	err := s.visit([]*mergetree.Node{root})
	if err != nil {
		return Result{}, err
	}

	return Result{Cut: s.best, Score: s.bestScore, Visited: len(s.seen)}, nil
}

const checkEvery = 256

type search struct {
	ctx       context.Context
	scorer    Scorer
	seen      map[string]struct{}
	best      []*mergetree.Node
	bestScore float64
}

func (s *search) visit(config []*mergetree.Node) error {
	key := configKey(config)
	if _, ok := s.seen[key]; ok {
		return nil
	}

	// Cancellation is polled once per checkEvery configurations.
	if len(s.seen)%checkEvery == 0 {
		err := s.ctx.Err()
		if err != nil {
			return fmt.Errorf("exhaustive search: %w", err)
		}
	}

	s.seen[key] = struct{}{}

	score, err := s.scorer.Score(config)
	if err != nil {
		return err
	}

	if s.best == nil || score < s.bestScore {
		s.best = config
		s.bestScore = score
	}

	for i, n := range config {
		left, right, internal, childErr := n.Children()
		if childErr != nil {
			return childErr
		}

		if !internal {
			continue
		}

		expanded := make([]*mergetree.Node, 0, len(config)+1)
		expanded = append(expanded, config[:i]...)
		expanded = append(expanded, left, right)
		expanded = append(expanded, config[i+1:]...)

		err = s.visit(expanded)
		if err != nil {
			return err
		}
	}

	return nil
}

func configKey(config []*mergetree.Node) string {
	var sb strings.Builder

	for i, n := range config {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteString(strconv.Itoa(n.ID))
	}

	return sb.String()
}
