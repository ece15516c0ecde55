package types

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// TradeStats aggregates closed-trade counters for one strategy instance.
type TradeStats struct {
	TotalTrades int     `yaml:"total_trades" json:"total_trades"`
	Wins        int     `yaml:"wins" json:"wins"`
	Losses      int     `yaml:"losses" json:"losses"`
	GrossPnl    float64 `yaml:"gross_pnl" json:"gross_pnl"`
	Fees        float64 `yaml:"fees" json:"fees"`
	NetPnl      float64 `yaml:"net_pnl" json:"net_pnl"`
	// GrossWins and GrossLosses accumulate the absolute net PnL of winning
	// and losing trades respectively. Inputs to the profit factor.
	GrossWins   float64 `yaml:"gross_wins" json:"gross_wins"`
	GrossLosses float64 `yaml:"gross_losses" json:"gross_losses"`
}

// Record folds one closed trade into the counters. A zero-PnL trade counts
// as a loss.
func (s *TradeStats) Record(t Trade) {
	s.TotalTrades++
	s.GrossPnl += t.GrossPnl
	s.Fees += t.Fees
	s.NetPnl += t.NetPnl

	if t.NetPnl > 0 {
		s.Wins++
		s.GrossWins += t.NetPnl
	} else {
		s.Losses++
		s.GrossLosses += -t.NetPnl
	}
}

// WinRatePct returns 100*wins/totalTrades, 0 when no trades closed.
func (s TradeStats) WinRatePct() float64 {
	if s.TotalTrades == 0 {
		return 0
	}

	return 100 * float64(s.Wins) / float64(s.TotalTrades)
}

// ProfitFactor returns grossWins/grossLosses. It is +Inf when there are
// wins and zero losses, and 0 when there are no wins.
func (s TradeStats) ProfitFactor() float64 {
	if s.GrossWins == 0 {
		return 0
	}

	if s.GrossLosses == 0 {
		return math.Inf(1)
	}

	return s.GrossWins / s.GrossLosses
}

// SessionReport is the summary written at the end of a replay run.
type SessionReport struct {
	StrategyID   string     `yaml:"strategy_id" json:"strategy_id"`
	Profile      string     `yaml:"profile" json:"profile"`
	Symbol       string     `yaml:"symbol" json:"symbol"`
	Timeframe    Timeframe  `yaml:"timeframe" json:"timeframe"`
	Bars         int64      `yaml:"bars" json:"bars"`
	FinalCash    float64    `yaml:"final_cash" json:"final_cash"`
	FinalEquity  float64    `yaml:"final_equity" json:"final_equity"`
	PeakEquity   float64    `yaml:"peak_equity" json:"peak_equity"`
	DrawdownBps  float64    `yaml:"drawdown_bps" json:"drawdown_bps"`
	WinRatePct   float64    `yaml:"win_rate_pct" json:"win_rate_pct"`
	ProfitFactor float64    `yaml:"profit_factor" json:"profit_factor"`
	Stats        TradeStats `yaml:"stats" json:"stats"`
}

// WriteSessionReport writes the report to a YAML file.
func WriteSessionReport(path string, report SessionReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal session report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write session report to file: %w", err)
	}

	return nil
}
