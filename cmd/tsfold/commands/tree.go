package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
	"github.com/Sumatoshi-tech/tsfold/pkg/observability"
)

// ErrAmbiguousSeries is returned when tree is given more than one series.
var ErrAmbiguousSeries = errors.New("tree prints one series; select it with --columns")

type treeCommand struct {
	app   *app
	input inputFlags
	model modelFlags

	depth      int
	showValues bool
	showCut    bool
}

func (a *app) treeCommand() *cobra.Command {
	tc := &treeCommand{app: a}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the merge tree of a series",
		Long: `Build the merge tree of one series and print it as an ASCII tree. Internal
nodes show their leaf span and merge cost; --cut lists the selected folds after the tree.`,
		Example: `  tsfold tree -i prices.csv -c close --depth 3 --values`,
		Args:    cobra.NoArgs,
		RunE:    tc.run,
	}

	tc.input.register(cmd)
	tc.model.register(cmd)

	cmd.Flags().IntVar(&tc.depth, "depth", -1, "stop printing below this depth (-1 = everything)")
	cmd.Flags().BoolVar(&tc.showValues, "values", false, "print a preview of each node's values")
	cmd.Flags().BoolVar(&tc.showCut, "cut", false, "list the selected folds after the tree")

	return cmd
}

func (tc *treeCommand) run(cmd *cobra.Command, _ []string) error {
	stop, err := tc.app.start(observability.ModeCLI)
	if err != nil {
		return err
	}
	defer stop()

	tc.input.apply(cmd, tc.app.cfg)

	err = tc.model.apply(cmd, tc.app.cfg)
	if err != nil {
		return err
	}

	ctx, span := tc.app.providers.Tracer.Start(cmd.Context(), "tsfold.tree")
	defer span.End()

	_, all, err := tc.app.load(ctx, &tc.input)
	if err != nil {
		return err
	}

	if len(all) != 1 {
		return fmt.Errorf("%w: got %d", ErrAmbiguousSeries, len(all))
	}

	seg, err := tc.app.segmenter()
	if err != nil {
		return err
	}

	res, err := seg.Run(ctx, all[0], tc.app.cfg.FoldRequest())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	_, err = fmt.Fprintf(out, "%s: %d leaves, height %d, root length %.4f\n",
		res.Series, res.Leaves, res.Tree.Root.Height(), res.RootLength)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, mergetree.Render(res.Tree.Root, mergetree.RenderOptions{
		MaxDepth:   tc.depth,
		ShowValues: tc.showValues,
	}))
	if err != nil {
		return err
	}

	if !tc.showCut {
		return nil
	}

	for i, n := range res.Cut {
		_, err = fmt.Fprintf(out, "fold %s length %.4f\n", n.Span, res.Folds[i].Length)
		if err != nil {
			return err
		}
	}

	return nil
}
