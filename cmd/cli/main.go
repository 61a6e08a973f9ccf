package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"taxsim/adapters/excel"
	"taxsim/domain/policy"
	"taxsim/internal/tbi"
	"taxsim/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "taxsim-cli",
		Short: "taxsim CLI for validating assumptions and running simulations",
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newValidateCmd() *cobra.Command {
	var startYear, numYears int

	cmd := &cobra.Command{
		Use:   "validate [assumptions.json]",
		Short: "Validate a multi-year behavioral-assumption file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var behavior policy.Assumptions
			if err := readJSONFile(args[0], &behavior); err != nil {
				return err
			}

			errText, err := tbi.AssumptionErrors(behavior, startYear, numYears)
			if err != nil {
				return err
			}
			if errText != "" {
				fmt.Println(errText)
				os.Exit(1)
			}
			fmt.Printf("assumptions valid for years %d-%d\n", startYear, startYear+numYears-1)
			return nil
		},
	}

	cmd.Flags().IntVar(&startYear, "start-year", 2021, "first simulated year")
	cmd.Flags().IntVar(&numYears, "num-years", 10, "number of years to validate")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		yearN, startYear    int
		fullPop, fullSample bool
		reformPath          string
		assumpPath          string
		asTables            bool
		xlsxPath            string
		units               int
		seed                int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the partial-equilibrium simulation for one year",
		RunE: func(cmd *cobra.Command, args []string) error {
			userMods := policy.UserMods{}
			if reformPath != "" {
				var reform policy.Reform
				if err := readJSONFile(reformPath, &reform); err != nil {
					return err
				}
				userMods[policy.PolicyArea] = reform
			}

			behavior := policy.Assumptions{}
			if assumpPath != "" {
				if err := readJSONFile(assumpPath, &behavior); err != nil {
					return err
				}
			}

			genCfg := testkit.DefaultPopulationConfig()
			genCfg.UnitCount = units
			genCfg.Seed = seed
			repo := testkit.NewSyntheticRepository(genCfg)
			model := tbi.NewModel(repo)

			returnDict := !asTables && xlsxPath == ""
			result, err := model.RunNthYear(context.Background(), yearN, startYear,
				fullPop, fullSample, userMods, behavior, returnDict)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				writer := excel.NewResultWriter()
				if err := writer.Export(xlsxPath, result.Year, result.Tables); err != nil {
					return err
				}
				fmt.Printf("results written to %s\n", xlsxPath)
				return nil
			}

			var out interface{} = result.Dict
			if asTables {
				out = result.Tables
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVar(&yearN, "year-n", 0, "years after start-year to simulate")
	cmd.Flags().IntVar(&startYear, "start-year", 2021, "first simulated year")
	cmd.Flags().BoolVar(&fullPop, "full-population", false, "use the administrative population (enables fuzzing)")
	cmd.Flags().BoolVar(&fullSample, "full-sample", true, "use the full sample instead of the subsample")
	cmd.Flags().StringVar(&reformPath, "reform", "", "policy reform JSON file")
	cmd.Flags().StringVar(&assumpPath, "assumptions", "", "behavioral assumptions JSON file")
	cmd.Flags().BoolVar(&asTables, "tables", false, "emit year-suffixed tables instead of nested dicts")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "export tables to an .xlsx workbook")
	cmd.Flags().IntVar(&units, "units", 5000, "synthetic population size")
	cmd.Flags().Int64Var(&seed, "population-seed", 42, "synthetic population seed")
	return cmd
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
