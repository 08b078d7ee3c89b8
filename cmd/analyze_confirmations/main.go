// Offline analysis of persisted evaluations: buckets results by final
// confidence and compares confirmation rates per bucket, to sanity-check
// whether the hybrid boost is promoting borderline signals too often.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

type evaluationRow struct {
	Symbol     string
	SignalType string
	Confirmed  bool
	Confidence float64
	Primary    float64
	Boost      float64
}

type confidenceBucket struct {
	MinConf   float64
	MaxConf   float64
	Total     int
	Confirmed int
	Boosted   int // confirmations where the primary alone was below threshold
	SumBoost  float64
}

func main() {
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "mtf_confirmation")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	query := `
		SELECT symbol, signal_type, confirmed, confidence, primary_confidence, boost
		FROM mtf_evaluations
		WHERE error_kind = ''
		ORDER BY created_at DESC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	var evals []evaluationRow
	for rows.Next() {
		var e evaluationRow
		if err := rows.Scan(&e.Symbol, &e.SignalType, &e.Confirmed, &e.Confidence, &e.Primary, &e.Boost); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		evals = append(evals, e)
	}

	if len(evals) == 0 {
		fmt.Println("No evaluations found in database.")
		return
	}

	fmt.Printf("Analyzing %d evaluations...\n\n", len(evals))

	buckets := []confidenceBucket{
		{MinConf: 0.00, MaxConf: 0.40},
		{MinConf: 0.40, MaxConf: 0.60},
		{MinConf: 0.60, MaxConf: 0.70},
		{MinConf: 0.70, MaxConf: 0.85},
		{MinConf: 0.85, MaxConf: 1.01},
	}

	const threshold = 0.6

	for _, e := range evals {
		for i := range buckets {
			if e.Confidence >= buckets[i].MinConf && e.Confidence < buckets[i].MaxConf {
				buckets[i].Total++
				buckets[i].SumBoost += e.Boost
				if e.Confirmed {
					buckets[i].Confirmed++
					if e.Primary < threshold {
						buckets[i].Boosted++
					}
				}
				break
			}
		}
	}

	fmt.Println("┌───────────────┬────────┬───────────┬──────────────────┬───────────┐")
	fmt.Println("│ Confidence    │ Total  │ Confirmed │ Boost-dependent  │ Avg boost │")
	fmt.Println("├───────────────┼────────┼───────────┼──────────────────┼───────────┤")
	for _, b := range buckets {
		avgBoost := 0.0
		if b.Total > 0 {
			avgBoost = b.SumBoost / float64(b.Total)
		}
		fmt.Printf("│ %4.0f%% - %4.0f%% │ %6d │ %9d │ %16d │ %9.3f │\n",
			b.MinConf*100, b.MaxConf*100, b.Total, b.Confirmed, b.Boosted, avgBoost)
	}
	fmt.Println("└───────────────┴────────┴───────────┴──────────────────┴───────────┘")

	var totalConfirmed, boostDependent int
	for _, b := range buckets {
		totalConfirmed += b.Confirmed
		boostDependent += b.Boosted
	}
	fmt.Printf("\nConfirmed: %d/%d", totalConfirmed, len(evals))
	if totalConfirmed > 0 {
		fmt.Printf(" (%.1f%% of those needed the hybrid boost)",
			float64(boostDependent)/float64(totalConfirmed)*100)
	}
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
