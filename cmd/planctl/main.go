/*
main.go - planctl, the admin CLI

PURPOSE:
  Command-line access to the same propagation pipelines the dashboard
  invokes over HTTP. Useful when operating directly against the database:
  seeding, initializing packages, and re-running propagations after a
  partial write failure.

COMMANDS:
  planctl seed                        Seed the default rule set
  planctl init <package>              Clone the default rule set into a package
  planctl rules <package>             List a package's rules
  planctl apply <package> <rule-id>   Propagate one rule to all customers
  planctl resync <package>            Apply the whole rule set to all plans

GLOBAL FLAGS:
  --db     SQLite database path (default: plans.db)
  --actor  Operator identity for audit stamps (default: planctl)
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/craftdesk/plan-engine/factory"
	"github.com/craftdesk/plan-engine/plan"
	"github.com/craftdesk/plan-engine/propagate"
	"github.com/craftdesk/plan-engine/store/sqlite"
)

var (
	dbPath string
	actor  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planctl",
		Short: "Administer customer task plans and package rule sets",
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "plans.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "planctl", "Operator identity for audit stamps")

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(resyncCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withEngine opens the store, runs fn, and closes the store.
func withEngine(fn func(ctx context.Context, e *propagate.Engine) error) error {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	return fn(context.Background(), propagate.New(store))
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default rule set if absent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(ctx context.Context, e *propagate.Engine) error {
				if err := factory.SeedDefaults(ctx, e.Store, actor); err != nil {
					return err
				}
				fmt.Println("default rule set seeded")
				return nil
			})
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <package>",
		Short: "Clone the default rule set into a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := parsePackage(args[0])
			if err != nil {
				return err
			}
			return withEngine(func(ctx context.Context, e *propagate.Engine) error {
				rs, err := e.InitPackage(ctx, pkg, actor)
				if err != nil {
					return err
				}
				fmt.Printf("initialized %s: %d sections, %d rules\n", pkg.Label(), len(rs.Sections), len(rs.Tasks))
				return nil
			})
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules <package>",
		Short: "List a package's rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := parsePackage(args[0])
			if err != nil {
				return err
			}
			return withEngine(func(ctx context.Context, e *propagate.Engine) error {
				rs, err := e.GetRuleSet(ctx, pkg)
				if err != nil {
					return err
				}
				for _, rule := range rs.Tasks {
					fmt.Printf("%-14s %-10s %-28s %s\n", rule.ID, rule.Frequency, rule.Section, rule.Name)
				}
				return nil
			})
		},
	}
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <package> <rule-id>",
		Short: "Propagate one rule to every matching customer's plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := parsePackage(args[0])
			if err != nil {
				return err
			}
			return withEngine(func(ctx context.Context, e *propagate.Engine) error {
				result, err := e.ApplyRule(ctx, pkg, plan.RuleID(args[1]), actor)
				if err != nil {
					return err
				}
				printResult(result)
				return nil
			})
		},
	}
}

func resyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync <package>",
		Short: "Apply the whole current rule set to every matching customer's plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := parsePackage(args[0])
			if err != nil {
				return err
			}
			return withEngine(func(ctx context.Context, e *propagate.Engine) error {
				result, err := e.ResyncAll(ctx, pkg, actor)
				if err != nil {
					return err
				}
				printResult(result)
				return nil
			})
		},
	}
}

func parsePackage(s string) (plan.PackageKey, error) {
	pkg := plan.PackageKey(s)
	if !pkg.Valid() {
		return "", fmt.Errorf("unknown package key %q", s)
	}
	return pkg, nil
}

func printResult(r *propagate.Result) {
	if r.Notice != "" {
		fmt.Println(r.Notice)
		return
	}
	fmt.Printf("selected %d, updated %d, skipped %d (no plan), %d commits\n",
		r.Selected, r.Updated, r.Skipped, r.Commits)
	if r.Tasks > 0 {
		fmt.Printf("rewrote %d task instances\n", r.Tasks)
	}
}
