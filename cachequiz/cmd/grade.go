package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachequiz/grading"
	"github.com/sarchlab/cachequiz/scenario"
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a submission against a generated scenario.",
}

var gradeCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Grade a submitted final cache table.",
	Long: "`grade cache --result r.json --submission s.json` reads the " +
		"output of `generate` and a JSON object of cells keyed like " +
		"tag0_1 or data1_0_3, and prints the grade.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			result     scenario.Result
			submission map[string]string
		)

		if err := readInputs(cmd, &result, &submission); err != nil {
			return err
		}

		modeName, _ := cmd.Flags().GetString("mode")

		mode, err := grading.ParseCacheMode(modeName)
		if err != nil {
			return err
		}

		showData, _ := cmd.Flags().GetBool("show-data")
		weight, _ := cmd.Flags().GetInt("weight")

		grade, err := grading.GradeCacheTable(
			result.Initial, result.Final, submission,
			grading.CacheOptions{
				Mode:      mode,
				Base:      result.Params.Base,
				ShowValid: result.Params.ShowValid,
				ShowDirty: result.Params.ShowDirty,
				ShowData:  showData,
				Weight:    weight,
			})
		if err != nil {
			return err
		}

		return printJSON(cmd, grade)
	},
}

var gradeAccessCmd = &cobra.Command{
	Use:   "access",
	Short: "Grade a submitted hit/miss table.",
	Long: "`grade access --result r.json --submission s.json` reads the " +
		"output of `generate` and a JSON array of \"Hit\"/\"Miss\" " +
		"selections, and prints the grade.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			result     scenario.Result
			submission []string
		)

		if err := readInputs(cmd, &result, &submission); err != nil {
			return err
		}

		modeName, _ := cmd.Flags().GetString("mode")

		mode, err := grading.ParseAccessMode(modeName)
		if err != nil {
			return err
		}

		weight, _ := cmd.Flags().GetInt("weight")

		grade := grading.GradeAccessTable(result.Accesses, submission,
			grading.AccessOptions{
				Mode:       mode,
				EmptyCache: result.Params.Fill == scenario.FillEmpty,
				Weight:     weight,
			})

		return printJSON(cmd, grade)
	},
}

func init() {
	rootCmd.AddCommand(gradeCmd)
	gradeCmd.AddCommand(gradeCacheCmd)
	gradeCmd.AddCommand(gradeAccessCmd)

	for _, c := range []*cobra.Command{gradeCacheCmd, gradeAccessCmd} {
		c.Flags().String("result", "", "Scenario JSON printed by generate")
		c.Flags().String("submission", "", "Submission JSON")
		c.Flags().Int("weight", 1, "Weight reported with the score")
		_ = c.MarkFlagRequired("result")
		_ = c.MarkFlagRequired("submission")
	}

	gradeCacheCmd.Flags().String("mode", "blocks",
		"Grade mode: blocks, cells or all-or-nothing")
	gradeCacheCmd.Flags().Bool("show-data", true, "Grade the data cells")
	gradeAccessCmd.Flags().String("mode", "through-first",
		"Grade mode: through-first, all or all-or-nothing")
}

func readInputs(cmd *cobra.Command, result, submission any) error {
	resultPath, _ := cmd.Flags().GetString("result")
	if err := readJSON(resultPath, result); err != nil {
		return err
	}

	submissionPath, _ := cmd.Flags().GetString("submission")

	return readJSON(submissionPath, submission)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
