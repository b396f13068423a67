package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
)

func newOperatorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operators [kind]",
		Short: "List the operators for a field kind, or the kinds that support conditions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, k := range conditions.ConditionableFieldKinds() {
					fmt.Fprintln(out, k)
				}
				return nil
			}

			kind, err := conditions.ParseFieldKind(args[0])
			if err != nil {
				return err
			}
			if !kind.IsConditionable() {
				return fmt.Errorf("%s does not support conditions", kind)
			}
			for _, op := range conditions.OperatorNames(kind) {
				units := conditions.OperatorUnits(kind, op)
				if len(units) == 0 {
					fmt.Fprintln(out, op)
					continue
				}
				names := make([]string, len(units))
				for i, u := range units {
					names[i] = string(u)
				}
				fmt.Fprintf(out, "%s (relative: %s)\n", op, strings.Join(names, ", "))
			}
			return nil
		},
	}
}
