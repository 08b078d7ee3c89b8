package mtf

import (
	"log/slog"
	"math"
	"os"
	"reflect"
	"strings"
	"testing"

	"mtf-confirmation-service/internal/series"
)

// ==================== HELPER FUNCTIONS ====================

// createTestLogger returns a logger that outputs to stdout for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(DefaultConfig(), createTestLogger())
}

// seriesFromCloses builds a PriceSeries with synthetic OHLV columns around
// the given closes. Volume is flat at 1000.
func seriesFromCloses(closes []float64) *series.PriceSeries {
	s := &series.PriceSeries{
		Open:   make([]float64, len(closes)),
		High:   make([]float64, len(closes)),
		Low:    make([]float64, len(closes)),
		Close:  make([]float64, len(closes)),
		Volume: make([]float64, len(closes)),
	}
	for i, c := range closes {
		s.Open[i] = c
		s.High[i] = c + 1.0
		s.Low[i] = c - 1.0
		s.Close[i] = c
		s.Volume[i] = 1000.0
	}
	return s
}

// uptrendCloses produces n closes rising by step per bar.
func uptrendCloses(n int, base, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base + float64(i)*step
	}
	return closes
}

// downtrendCloses produces n closes falling by step per bar.
func downtrendCloses(n int, base, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = base - float64(i)*step
	}
	return closes
}

// recoveringCloses builds the shape that lands in the weakest bullish
// tier: a long flat stretch, a sharp dip, then a single bar back near the
// old level. Price ends above the slow EMA while the fast EMA is still
// below it and MACD is still below its signal line.
func recoveringCloses() []float64 {
	closes := make([]float64, 0, 26)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100.0)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 80.0)
	}
	return append(closes, 93.0)
}

// strongSecondarySeries builds a fast-timeframe series in a steady uptrend
// with a volume spike on the last bar, scoring secondary strength 1.0.
func strongSecondarySeries() *series.PriceSeries {
	s := seriesFromCloses(uptrendCloses(60, 100, 0.5))
	s.Volume[len(s.Volume)-1] = 1600.0
	return s
}

// mirrorSeries reflects every column around the mean close so that a
// downtrend becomes the exact mirror image of an uptrend.
func mirrorSeries(s *series.PriceSeries) *series.PriceSeries {
	mean := 0.0
	for _, c := range s.Close {
		mean += c
	}
	mean /= float64(len(s.Close))

	m := &series.PriceSeries{
		Open:   make([]float64, len(s.Close)),
		High:   make([]float64, len(s.Close)),
		Low:    make([]float64, len(s.Close)),
		Close:  make([]float64, len(s.Close)),
		Volume: make([]float64, len(s.Close)),
	}
	for i := range s.Close {
		m.Open[i] = 2*mean - s.Open[i]
		m.High[i] = 2*mean - s.Low[i]
		m.Low[i] = 2*mean - s.High[i]
		m.Close[i] = 2*mean - s.Close[i]
		m.Volume[i] = s.Volume[i]
	}
	return m
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ==================== END-TO-END SCENARIOS ====================

func TestCheck_StrongUptrendConfirmsLong(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(uptrendCloses(30, 100, 1.0))

	res := e.Check("BTCUSDT", SignalLong, primary, nil, nil)

	if !res.Confirmed {
		t.Fatalf("expected confirmation, got %+v", res)
	}
	if !res.PrimaryConfirmed {
		t.Errorf("expected primary confirmation, reason=%q", res.Primary.Reason)
	}
	if !almostEqual(res.PrimaryConfidence, 1.0, 1e-9) {
		t.Errorf("expected primary confidence 1.0, got %.4f", res.PrimaryConfidence)
	}
	if !strings.Contains(res.Primary.Reason, "strong bullish trend") {
		t.Errorf("unexpected primary reason %q", res.Primary.Reason)
	}
	if !strings.Contains(res.Primary.Reason, "MACD bullish") {
		t.Errorf("expected MACD reinforcement in reason %q", res.Primary.Reason)
	}
	if res.Error != ErrNone {
		t.Errorf("unexpected error kind %q", res.Error)
	}
}

func TestCheck_StrongDowntrendConfirmsShort(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(downtrendCloses(30, 200, 1.0))

	res := e.Check("ETHUSDT", SignalShort, primary, nil, nil)

	if !res.Confirmed {
		t.Fatalf("expected confirmation, got %+v", res)
	}
	if !almostEqual(res.PrimaryConfidence, 1.0, 1e-9) {
		t.Errorf("expected primary confidence 1.0, got %.4f", res.PrimaryConfidence)
	}
	if !strings.Contains(res.Primary.Reason, "strong bearish trend") {
		t.Errorf("unexpected primary reason %q", res.Primary.Reason)
	}
}

func TestCheck_WeakRecoveryNotConfirmedWithoutSupport(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(recoveringCloses())

	res := e.Check("BTCUSDT", SignalLong, primary, nil, nil)

	// Price above the slow EMA (0.65) minus the MACD penalty (0.10).
	if !almostEqual(res.PrimaryConfidence, 0.55, 1e-9) {
		t.Fatalf("expected primary confidence 0.55, got %.4f (%s)", res.PrimaryConfidence, res.Primary.Reason)
	}
	if res.PrimaryConfirmed {
		t.Error("primary should not confirm below the threshold")
	}
	if res.Confirmed {
		t.Errorf("no compensation source, should stay unconfirmed: %+v", res)
	}
	if res.Boost != 0 {
		t.Errorf("neutral secondary and market must not boost, got %.4f", res.Boost)
	}
	if !strings.Contains(res.Reason, "not confirmed: 0.55 < 0.60") {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestCheck_StrongSecondaryCompensatesWeakPrimary(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(recoveringCloses())
	secondary := strongSecondarySeries()

	res := e.Check("BTCUSDT", SignalLong, primary, secondary, nil)

	if !almostEqual(res.SecondaryStrength, 1.0, 1e-9) {
		t.Fatalf("expected secondary strength 1.0, got %.4f", res.SecondaryStrength)
	}
	if !almostEqual(res.Boost, 0.28, 1e-9) {
		t.Errorf("expected boost 0.28, got %.4f", res.Boost)
	}
	if !almostEqual(res.Confidence, 0.83, 1e-9) {
		t.Errorf("expected final confidence 0.83, got %.4f", res.Confidence)
	}
	if !res.Confirmed {
		t.Errorf("boosted confidence crosses the threshold, should confirm: %+v", res)
	}
	if res.PrimaryConfirmed {
		t.Error("primary alone should not confirm")
	}
	if !strings.Contains(res.Reason, "hybrid compensation applied") {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestCheck_ShortSecondaryDefaultsToNeutral(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(recoveringCloses())
	secondary := seriesFromCloses(uptrendCloses(10, 100, 0.5)) // below MinSecondaryRows

	res := e.Check("BTCUSDT", SignalLong, primary, secondary, nil)

	if !almostEqual(res.SecondaryStrength, 0.5, 1e-9) {
		t.Fatalf("short secondary series must score neutral 0.5, got %.4f", res.SecondaryStrength)
	}
	if res.Secondary.Error != ErrInsufficientSecondary {
		t.Errorf("expected secondary error tag, got %q", res.Secondary.Error)
	}
	if res.Error != ErrNone {
		t.Errorf("secondary shortage is non-fatal, top-level error should be empty, got %q", res.Error)
	}
	if res.Confirmed {
		t.Error("neutral secondary cannot lift 0.55 over the threshold")
	}
}

func TestCheck_MissingPrimaryDataFailsTyped(t *testing.T) {
	e := newTestEvaluator()

	tests := []struct {
		name    string
		primary *series.PriceSeries
	}{
		{"nil series", nil},
		{"empty series", seriesFromCloses(nil)},
		{"too few rows", seriesFromCloses(uptrendCloses(5, 100, 1.0))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Check("BTCUSDT", SignalLong, tc.primary, strongSecondarySeries(), nil)
			if res.Error != ErrInsufficientPrimary {
				t.Fatalf("expected %q, got %q", ErrInsufficientPrimary, res.Error)
			}
			if res.Confirmed {
				t.Error("cannot confirm without primary data")
			}
			if res.Confidence != 0 {
				t.Errorf("expected zero confidence, got %.4f", res.Confidence)
			}
		})
	}
}

func TestCheck_NaNInPrimaryFailsTyped(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(uptrendCloses(30, 100, 1.0))
	primary.Close[12] = math.NaN()

	res := e.Check("BTCUSDT", SignalLong, primary, nil, nil)

	if res.Error != ErrInsufficientPrimary {
		t.Fatalf("expected %q, got %q", ErrInsufficientPrimary, res.Error)
	}
	if res.Confirmed {
		t.Error("non-finite input must not confirm")
	}
}

func TestCheck_MarketMomentumCompensates(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(recoveringCloses())
	market := &MarketContext{BTCChange12h: 0.05, ETHChange12h: 0.05, MarketRegime: "BULL_TREND"}

	res := e.Check("BTCUSDT", SignalLong, primary, nil, market)

	if !almostEqual(res.MarketMomentum, 1.0, 1e-9) {
		t.Fatalf("expected clamped momentum 1.0, got %.4f", res.MarketMomentum)
	}
	// Momentum >= 0.8 contributes 0.175; neutral secondary contributes nothing.
	if !almostEqual(res.Boost, 0.175, 1e-9) {
		t.Errorf("expected boost 0.175, got %.4f", res.Boost)
	}
	if !res.Confirmed {
		t.Errorf("0.55 + 0.175 crosses the threshold, got %+v", res)
	}
}

// ==================== PROPERTIES ====================

func TestCheck_Deterministic(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(recoveringCloses())
	secondary := strongSecondarySeries()
	market := &MarketContext{BTCChange12h: 0.015, OverallTrend: "BULLISH"}

	first := e.Check("SOLUSDT", SignalLong, primary, secondary, market)
	second := e.Check("SOLUSDT", SignalLong, primary, secondary, market)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same inputs must produce identical results:\n%+v\n%+v", first, second)
	}
}

func TestCheck_ConfidenceStaysInBounds(t *testing.T) {
	e := newTestEvaluator()
	market := &MarketContext{BTCChange12h: 0.06, ETHChange12h: 0.05, SOLChange12h: 0.05, MarketRegime: "BULL_TREND"}

	inputs := []*series.PriceSeries{
		seriesFromCloses(uptrendCloses(30, 100, 2.0)),
		seriesFromCloses(downtrendCloses(30, 200, 2.0)),
		seriesFromCloses(recoveringCloses()),
	}
	for _, primary := range inputs {
		for _, signal := range []SignalType{SignalLong, SignalShort} {
			res := e.Check("BTCUSDT", signal, primary, strongSecondarySeries(), market)
			if res.Confidence < 0 || res.Confidence > 1 {
				t.Errorf("%s: confidence %.4f out of [0,1]", signal, res.Confidence)
			}
			if res.Boost < 0 || res.Boost > e.Config().MaxHybridBoost+1e-12 {
				t.Errorf("%s: boost %.4f exceeds cap", signal, res.Boost)
			}
		}
	}
}

func TestCheck_LongShortSymmetry(t *testing.T) {
	e := newTestEvaluator()
	primaryUp := seriesFromCloses(uptrendCloses(40, 100, 0.7))
	secondaryUp := strongSecondarySeries()
	primaryDown := mirrorSeries(primaryUp)
	secondaryDown := mirrorSeries(secondaryUp)

	long := e.Check("BTCUSDT", SignalLong, primaryUp, secondaryUp, nil)
	short := e.Check("BTCUSDT", SignalShort, primaryDown, secondaryDown, nil)

	if long.Confirmed != short.Confirmed {
		t.Errorf("confirmation asymmetry: long=%v short=%v", long.Confirmed, short.Confirmed)
	}
	if !almostEqual(long.Confidence, short.Confidence, 1e-9) {
		t.Errorf("confidence asymmetry: long=%.6f short=%.6f", long.Confidence, short.Confidence)
	}
	if !almostEqual(long.PrimaryConfidence, short.PrimaryConfidence, 1e-9) {
		t.Errorf("primary asymmetry: long=%.6f short=%.6f", long.PrimaryConfidence, short.PrimaryConfidence)
	}
	if !almostEqual(long.SecondaryStrength, short.SecondaryStrength, 1e-9) {
		t.Errorf("secondary asymmetry: long=%.6f short=%.6f", long.SecondaryStrength, short.SecondaryStrength)
	}
}

func TestCheck_OppositeSignalRejected(t *testing.T) {
	e := newTestEvaluator()
	primary := seriesFromCloses(uptrendCloses(30, 100, 1.0))

	res := e.Check("BTCUSDT", SignalShort, primary, nil, nil)

	if res.Confirmed {
		t.Errorf("SHORT against a strong uptrend must not confirm: %+v", res)
	}
	if !strings.Contains(res.Primary.Reason, "not bearish") {
		t.Errorf("unexpected primary reason %q", res.Primary.Reason)
	}
}

func TestCheck_CustomThresholdRespected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinPrimaryConfidence = 0.5
	e := NewEvaluator(cfg, createTestLogger())
	primary := seriesFromCloses(recoveringCloses())

	res := e.Check("BTCUSDT", SignalLong, primary, nil, nil)

	// 0.55 clears a lowered 0.5 threshold without any compensation.
	if !res.Confirmed {
		t.Errorf("expected confirmation at min=0.5, got %+v", res)
	}
	if !res.PrimaryConfirmed {
		t.Error("primary should confirm at the lowered threshold")
	}
}

func TestNewEvaluator_ZeroConfigGetsDefaults(t *testing.T) {
	e := NewEvaluator(Config{}, nil)
	cfg := e.Config()
	if cfg.MinPrimaryConfidence != 0.6 || cfg.MaxHybridBoost != 0.35 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.PrimaryTimeframe != "4h" || cfg.SecondaryTimeframe != "1h" {
		t.Errorf("default timeframes not applied: %+v", cfg)
	}
}

func TestParseSignalType(t *testing.T) {
	tests := []struct {
		in      string
		want    SignalType
		wantErr bool
	}{
		{"LONG", SignalLong, false},
		{"long", SignalLong, false},
		{"BUY", SignalLong, false},
		{"SHORT", SignalShort, false},
		{"sell", SignalShort, false},
		{" Short ", SignalShort, false},
		{"HOLD", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseSignalType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseSignalType(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseSignalType(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
