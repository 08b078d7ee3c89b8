// One-shot confirmation check from the command line. Fetches candles,
// runs the hybrid evaluation and prints the breakdown without touching
// the database or Redis.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"mtf-confirmation-service/config"
	"mtf-confirmation-service/internal/binance"
	"mtf-confirmation-service/internal/logging"
	"mtf-confirmation-service/internal/marketdata"
	"mtf-confirmation-service/internal/mtf"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to evaluate, e.g. BTCUSDT")
	signalRaw := flag.String("signal", "LONG", "signal direction: LONG or SHORT")
	asJSON := flag.Bool("json", false, "print the full result as JSON")
	noContext := flag.Bool("no-context", false, "skip the market context fetch")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: evaluate -symbol BTCUSDT [-signal SHORT] [-json]")
		os.Exit(2)
	}

	signal, err := mtf.ParseSignalType(*signalRaw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewSlog(logging.Config{Level: "WARN", Output: "stderr"})

	var client binance.MarketDataClient
	if cfg.BinanceConfig.MockMode {
		client = binance.NewMockClient()
	} else {
		client = binance.NewClient(cfg.BinanceConfig.BaseURL)
	}

	fetcher := marketdata.NewFetcher(client, logger)

	primary, err := fetcher.Series(*symbol, cfg.MTFConfig.PrimaryTimeframe, cfg.MTFConfig.CandleLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch %s %s candles: %v\n", *symbol, cfg.MTFConfig.PrimaryTimeframe, err)
		os.Exit(1)
	}
	secondary, err := fetcher.Series(*symbol, cfg.MTFConfig.SecondaryTimeframe, cfg.MTFConfig.CandleLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: no %s candles, evaluating without secondary: %v\n", cfg.MTFConfig.SecondaryTimeframe, err)
		secondary = nil
	}

	var market *mtf.MarketContext
	if !*noContext {
		provider := marketdata.NewContextProvider(fetcher, logger)
		market, err = provider.Snapshot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: market context unavailable: %v\n", err)
		}
	}

	evaluator := mtf.NewEvaluator(mtf.Config{
		PrimaryTimeframe:     cfg.MTFConfig.PrimaryTimeframe,
		SecondaryTimeframe:   cfg.MTFConfig.SecondaryTimeframe,
		MinPrimaryConfidence: cfg.MTFConfig.MinPrimaryConfidence,
		MaxHybridBoost:       cfg.MTFConfig.MaxHybridBoost,
	}, logger)

	result := evaluator.Check(*symbol, signal, primary, secondary, market)

	if *asJSON {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		printResult(result)
	}

	if !result.Confirmed {
		os.Exit(1)
	}
}

func printResult(r mtf.Result) {
	verdict := "REJECTED"
	if r.Confirmed {
		verdict = "CONFIRMED"
	}
	fmt.Printf("%s %s: %s (confidence %.2f)\n", r.Symbol, r.Signal, verdict, r.Confidence)
	fmt.Printf("  primary:   %.2f (confirmed=%v)\n", r.PrimaryConfidence, r.PrimaryConfirmed)
	fmt.Printf("  secondary: %.2f\n", r.SecondaryStrength)
	fmt.Printf("  market:    %.2f\n", r.MarketMomentum)
	fmt.Printf("  boost:     %.2f\n", r.Boost)
	fmt.Printf("  reason:    %s\n", r.Reason)
	if r.Error != mtf.ErrNone {
		fmt.Printf("  error:     %s\n", r.Error)
	}
}
