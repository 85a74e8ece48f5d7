// Command report renders a month's expense report to PDF without going
// through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

func main() {
	username := flag.String("username", "", "account to report on")
	year := flag.Int("year", time.Now().Year(), "report year")
	month := flag.Int("month", int(time.Now().Month()), "report month (1-12)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *username == "" {
		fmt.Fprintln(os.Stderr, "missing -username")
		os.Exit(1)
	}
	if *month < 1 || *month > 12 {
		fmt.Fprintf(os.Stderr, "invalid month %d\n", *month)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := repo.Queries().GetUserByUsername(ctx, *username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load user %q: %v\n", *username, err)
		os.Exit(1)
	}

	summaries := services.NewSummaryService(repo)
	reportLogger := applog.New(applog.Config{Component: applog.ComponentReport})
	generator := report.NewGenerator(summaries, cfg.ReportDir, reportLogger)

	path, err := generator.Generate(ctx, user.ID, *year, *month)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate report:", err)
		os.Exit(1)
	}

	fmt.Println(path)
}
