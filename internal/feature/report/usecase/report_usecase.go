// Package usecase implements the post-run report: charts rendered from the
// freshly computed metrics window and an optional e-mailed summary.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
)

// ErrNoMetrics is returned when the metrics window is empty.
var ErrNoMetrics = errors.New("no metrics available for report")

// Series is one ticker's values over time, NaN points removed.
type Series struct {
	Ticker string
	Dates  []time.Time
	Values []float64
}

// ChartRenderer renders comparison charts to PNG files.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type ChartRenderer interface {
	// RenderLines draws one line per series and writes a PNG to path.
	RenderLines(title, path string, series []Series) error
	// RenderRSI is RenderLines with a fixed 0-100 range and 30/70 guides.
	RenderRSI(title, path string, series []Series) error
}

// Mailer sends the report e-mail.
type Mailer interface {
	Send(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error
}

// MetricWindowRepository reads the trailing metrics window.
type MetricWindowRepository interface {
	RecentWindow(ctx context.Context, windowDays int) ([]entity.DailyMetric, error)
}

// Options configures report generation.
type Options struct {
	ChartDir   string // directory for rendered PNGs
	MaxCharts  int    // cap on rendered charts; 0 means default 3
	WindowDays int    // metrics window; 0 means default 120
}

// Report summarizes one generation pass.
type Report struct {
	ChartPaths []string
	Tickers    []string
	Mailed     bool
}

// ReportUsecase renders charts and mails the summary. A nil mailer
// disables e-mail; chart failures are logged and skipped, matching the
// best-effort role of report artifacts.
type ReportUsecase struct {
	metrics MetricWindowRepository
	charts  ChartRenderer
	mailer  Mailer
	opts    Options
}

// NewReportUsecase creates a ReportUsecase.
func NewReportUsecase(metrics MetricWindowRepository, charts ChartRenderer, mailer Mailer, opts Options) *ReportUsecase {
	if opts.MaxCharts <= 0 {
		opts.MaxCharts = 3
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 120
	}
	return &ReportUsecase{metrics: metrics, charts: charts, mailer: mailer, opts: opts}
}

// Generate renders up to MaxCharts charts from the trailing window and, if
// a mailer is configured, sends the summary with the charts attached.
func (ru *ReportUsecase) Generate(ctx context.Context) (Report, error) {
	window, err := ru.metrics.RecentWindow(ctx, ru.opts.WindowDays)
	if err != nil {
		return Report{}, err
	}
	if len(window) == 0 {
		return Report{}, ErrNoMetrics
	}

	rep := Report{Tickers: tickersOf(window)}
	ts := time.Now().Format("20060102_150405")

	type chartJob struct {
		name   string
		render func(path string) error
	}
	jobs := []chartJob{
		{"ma7_comparison", func(path string) error {
			return ru.charts.RenderLines("7-Day Moving Averages", path, seriesOf(window, func(m entity.DailyMetric) float64 { return m.MA7 }))
		}},
		{"rsi_comparison", func(path string) error {
			return ru.charts.RenderRSI("RSI - Momentum Indicator", path, seriesOf(window, func(m entity.DailyMetric) float64 { return m.RSI }))
		}},
		{"vol30_comparison", func(path string) error {
			return ru.charts.RenderLines("30-Day Volatility", path, seriesOf(window, func(m entity.DailyMetric) float64 { return m.Vol30 }))
		}},
	}

	for _, j := range jobs {
		if len(rep.ChartPaths) >= ru.opts.MaxCharts {
			break
		}
		path := fmt.Sprintf("%s/%s_%s.png", ru.opts.ChartDir, j.name, ts)
		if err := j.render(path); err != nil {
			slog.Warn("chart rendering failed", "chart", j.name, "error", err)
			continue
		}
		rep.ChartPaths = append(rep.ChartPaths, path)
	}

	if ru.mailer != nil {
		subject := fmt.Sprintf("Daily metrics report %s", time.Now().Format("2006-01-02"))
		text, html := ru.summarize(window)
		if err := ru.mailer.Send(ctx, subject, text, html, rep.ChartPaths); err != nil {
			return rep, fmt.Errorf("send report mail: %w", err)
		}
		rep.Mailed = true
	}
	return rep, nil
}

// summarize builds the latest-row-per-ticker summary in plain text and HTML.
func (ru *ReportUsecase) summarize(window []entity.DailyMetric) (string, string) {
	latest := latestPerTicker(window)

	var text, html strings.Builder
	text.WriteString("Latest daily metrics\n\n")
	html.WriteString("<h2>Latest daily metrics</h2><table border=\"1\" cellpadding=\"4\">")
	html.WriteString("<tr><th>Ticker</th><th>Date</th><th>1d Return</th><th>7d MA</th><th>30d MA</th><th>RSI</th></tr>")

	for _, m := range latest {
		fmt.Fprintf(&text, "%-6s %s  return=%s  ma7=%s  ma30=%s  rsi=%s\n",
			m.Ticker, m.Date.Format("2006-01-02"),
			pct(m.Return1D), dollars(m.MA7), dollars(m.MA30), plain(m.RSI))
		fmt.Fprintf(&html, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			m.Ticker, m.Date.Format("2006-01-02"),
			pct(m.Return1D), dollars(m.MA7), dollars(m.MA30), plain(m.RSI))
	}
	html.WriteString("</table>")
	return text.String(), html.String()
}

func tickersOf(window []entity.DailyMetric) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range window {
		if _, ok := seen[m.Ticker]; ok {
			continue
		}
		seen[m.Ticker] = struct{}{}
		out = append(out, m.Ticker)
	}
	sort.Strings(out)
	return out
}

// seriesOf projects one metric field into per-ticker date-ascending series,
// dropping NaN points.
func seriesOf(window []entity.DailyMetric, pick func(entity.DailyMetric) float64) []Series {
	byTicker := map[string]*Series{}
	for _, t := range tickersOf(window) {
		byTicker[t] = &Series{Ticker: t}
	}

	rows := make([]entity.DailyMetric, len(window))
	copy(rows, window)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	for _, m := range rows {
		v := pick(m)
		if math.IsNaN(v) {
			continue
		}
		s := byTicker[m.Ticker]
		s.Dates = append(s.Dates, m.Date)
		s.Values = append(s.Values, v)
	}

	var out []Series
	for _, t := range tickersOf(window) {
		if s := byTicker[t]; len(s.Dates) > 0 {
			out = append(out, *s)
		}
	}
	return out
}

// latestPerTicker returns the newest row of each ticker, ticker ascending.
func latestPerTicker(window []entity.DailyMetric) []entity.DailyMetric {
	latest := map[string]entity.DailyMetric{}
	for _, m := range window {
		cur, ok := latest[m.Ticker]
		if !ok || m.Date.After(cur.Date) {
			latest[m.Ticker] = m
		}
	}
	var out []entity.DailyMetric
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func pct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func dollars(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", v)
}

func plain(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}
