package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"academic-advisor-go/db"
)

var askStudent string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and print the reply",
	Long: `Answer one question for a student and print the markdown reply.

Examples:
  advisor ask --student 1 "What are my quiz marks in Calculus?"
  advisor ask --student 2 "create a study plan"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Store.SeedDemo {
			seedIfEmpty(ctx, store)
		}

		adv, closeAdvisor, err := newAdvisor(ctx, store, cfg)
		if err != nil {
			return err
		}
		defer closeAdvisor()

		reply := adv.Answer(ctx, strings.Join(args, " "), askStudent)
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Load an Excel workbook into the configured store",
	Long: `Load courses, students, quizzes, assignments, attendance and midterms
from an Excel workbook. Each sheet is optional and starts with a header row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		report, err := db.ImportWorkbook(ctx, f, store)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo catalog and students into the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := db.SeedDemoData(ctx, store); err != nil {
			return err
		}
		log.Info().Str("store", cfg.Store.Driver).Msg("demo data loaded")
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askStudent, "student", db.DemoStudentID, "Student ID to answer for")
	rootCmd.AddCommand(askCmd, importCmd, seedCmd)
}
