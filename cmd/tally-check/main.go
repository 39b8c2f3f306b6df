package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/tally"
)

func main() {
	company := flag.String("company", "", "List ledgers for this company instead of listing companies")
	simulated := flag.Bool("simulated", false, "Use the simulated backend instead of TALLY_BASE_URL")
	timeout := flag.Duration("timeout", 90*time.Second, "Overall deadline")
	flag.Parse()

	mode := tally.TransportHTTP
	if *simulated || config.TallySimulated() {
		mode = tally.TransportSimulated
	}
	client := tally.NewClient(tally.Options{Mode: mode})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status := client.CheckConnection(ctx)
	fmt.Printf("connected=%v simulated=%v\n", status.Connected, status.Simulated)
	if !status.Connected {
		fmt.Fprintln(os.Stderr, "endpoint not reachable; check TALLY_BASE_URL")
		os.Exit(1)
	}

	if strings.TrimSpace(*company) == "" {
		companies, err := client.ListCompanies(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "listing companies: %v\n", err)
			os.Exit(1)
		}
		for _, name := range companies {
			fmt.Println(name)
		}
		return
	}

	ledgers, err := client.ListLedgers(ctx, *company)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing ledgers: %v\n", err)
		os.Exit(1)
	}
	for _, ledger := range ledgers {
		fmt.Printf("%s\t%s\n", ledger.Name, ledger.Group)
	}
}
