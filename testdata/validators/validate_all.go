// Command validate_all runs every generated scenario through the full
// review pipeline and reports each verdict. It exits non-zero when a
// scenario fails to load, which catches drift between the generator and
// the loaders.
//
// Usage:
//
//	go run validate_all.go -data-dir=../generated -verbose
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ocr-ledger-reconciliation/internal/parsers"
	"ocr-ledger-reconciliation/internal/reporter"
	"ocr-ledger-reconciliation/internal/session"
)

func main() {
	var (
		dataDir = flag.String("data-dir", "../generated", "Directory containing generated scenarios")
		verbose = flag.Bool("verbose", false, "Print the full console report per scenario")
	)
	flag.Parse()

	accounts, err := parsers.LoadAccountsFile(filepath.Join(*dataDir, "cuentas.json"))
	if err != nil {
		log.Fatalf("account snapshot: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(*dataDir, "corte_*.json"))
	if err != nil || len(matches) == 0 {
		log.Fatalf("no scenarios found in %s (run the generator first)", *dataDir)
	}
	sort.Strings(matches)

	generator, err := reporter.NewReportGenerator(nil)
	if err != nil {
		log.Fatal(err)
	}

	failures := 0
	for _, path := range matches {
		result, err := parsers.LoadOCRResultFile(path)
		if err != nil {
			fmt.Printf("%-30s ERROR: %v\n", filepath.Base(path), err)
			failures++
			continue
		}

		s := session.New(result, accounts, "route-demo", time.Now())
		if len(result.Loans) > 0 {
			if err := s.SelectLoanSource("acc-fondo"); err != nil {
				fmt.Printf("%-30s ERROR: %v\n", filepath.Base(path), err)
				failures++
				continue
			}
		}

		review := s.Review()
		fmt.Printf("%-30s %s\n", filepath.Base(path), reporter.RenderSummaryLine(review))

		if *verbose {
			meta := reporter.Meta{SessionID: s.ID.String(), RouteID: s.RouteID, BusinessDate: s.BusinessDate}
			if err := generator.GenerateReport(review, meta, os.Stdout); err != nil {
				log.Fatal(err)
			}
			fmt.Println()
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}
