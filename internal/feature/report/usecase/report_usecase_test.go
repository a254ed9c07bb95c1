package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UWorldJK/stocks-etl/internal/feature/metrics/domain/entity"
)

var (
	ErrRender = errors.New("render failed")
	ErrSMTP   = errors.New("smtp failed")
)

// mockChartRenderer is a mock implementation of the ChartRenderer interface.
type mockChartRenderer struct {
	RenderLinesFunc  func(title, path string, series []Series) error
	RenderRSIFunc    func(title, path string, series []Series) error
	RenderLinesCalls int
	RenderRSICalls   int
}

func (m *mockChartRenderer) RenderLines(title, path string, series []Series) error {
	m.RenderLinesCalls++
	if m.RenderLinesFunc != nil {
		return m.RenderLinesFunc(title, path, series)
	}
	return nil
}

func (m *mockChartRenderer) RenderRSI(title, path string, series []Series) error {
	m.RenderRSICalls++
	if m.RenderRSIFunc != nil {
		return m.RenderRSIFunc(title, path, series)
	}
	return nil
}

// mockMailer is a mock implementation of the Mailer interface.
type mockMailer struct {
	SendFunc  func(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error
	SendCalls int
}

func (m *mockMailer) Send(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error {
	m.SendCalls++
	if m.SendFunc != nil {
		return m.SendFunc(ctx, subject, textBody, htmlBody, attachments)
	}
	return nil
}

// mockMetricWindowRepository is a mock implementation of the MetricWindowRepository interface.
type mockMetricWindowRepository struct {
	RecentWindowFunc func(ctx context.Context, windowDays int) ([]entity.DailyMetric, error)
}

func (m *mockMetricWindowRepository) RecentWindow(ctx context.Context, windowDays int) ([]entity.DailyMetric, error) {
	if m.RecentWindowFunc != nil {
		return m.RecentWindowFunc(ctx, windowDays)
	}
	return nil, nil
}

func windowFixture() []entity.DailyMetric {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []entity.DailyMetric{
		{Date: d.AddDate(0, 0, 1), Ticker: "AAPL", Return1D: 0.01, MA7: 101, MA30: 100, Vol7: 0.02, Vol30: 0.03, RSI: 56},
		{Date: d, Ticker: "AAPL", Return1D: math.NaN(), MA7: 100, MA30: math.NaN(), Vol7: 0.02, Vol30: 0.03, RSI: 55},
		{Date: d, Ticker: "MSFT", Return1D: 0.02, MA7: 300, MA30: 299, Vol7: 0.01, Vol30: math.NaN(), RSI: 60},
	}
}

func windowRepo(rows []entity.DailyMetric) *mockMetricWindowRepository {
	return &mockMetricWindowRepository{
		RecentWindowFunc: func(ctx context.Context, windowDays int) ([]entity.DailyMetric, error) {
			return rows, nil
		},
	}
}

func TestReportUsecase_Generate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty window yields ErrNoMetrics", func(t *testing.T) {
		t.Parallel()

		ru := NewReportUsecase(windowRepo(nil), &mockChartRenderer{}, nil, Options{ChartDir: "charts"})
		_, err := ru.Generate(ctx)
		assert.ErrorIs(t, err, ErrNoMetrics)
	})

	t.Run("renders three charts and mails them as attachments", func(t *testing.T) {
		t.Parallel()

		charts := &mockChartRenderer{}
		var attached []string
		mailer := &mockMailer{
			SendFunc: func(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error {
				assert.Contains(t, subject, "Daily metrics report")
				assert.Contains(t, textBody, "AAPL")
				assert.Contains(t, htmlBody, "<table")
				attached = attachments
				return nil
			},
		}
		ru := NewReportUsecase(windowRepo(windowFixture()), charts, mailer, Options{ChartDir: "charts"})

		rep, err := ru.Generate(ctx)
		require.NoError(t, err)

		assert.Len(t, rep.ChartPaths, 3)
		assert.Equal(t, 2, charts.RenderLinesCalls, "ma7 and vol30")
		assert.Equal(t, 1, charts.RenderRSICalls)
		assert.Equal(t, []string{"AAPL", "MSFT"}, rep.Tickers)
		assert.True(t, rep.Mailed)
		assert.Equal(t, rep.ChartPaths, attached)
	})

	t.Run("series drop NaN points and run date ascending", func(t *testing.T) {
		t.Parallel()

		var lineCalls [][]Series
		charts := &mockChartRenderer{
			RenderLinesFunc: func(title, path string, series []Series) error {
				lineCalls = append(lineCalls, series)
				return nil
			},
		}
		ru := NewReportUsecase(windowRepo(windowFixture()), charts, nil, Options{ChartDir: "charts"})

		_, err := ru.Generate(ctx)
		require.NoError(t, err)
		require.Len(t, lineCalls, 2, "ma7 then vol30")

		ma7 := lineCalls[0]
		require.Len(t, ma7, 2)
		aapl := ma7[0]
		assert.Equal(t, "AAPL", aapl.Ticker)
		require.Len(t, aapl.Values, 2)
		assert.True(t, aapl.Dates[0].Before(aapl.Dates[1]), "series must be date ascending")
		assert.InDelta(t, 100, aapl.Values[0], 1e-9)
		assert.InDelta(t, 101, aapl.Values[1], 1e-9)

		// MSFT's only vol_30 value is undefined, so its series is dropped
		// from the volatility chart entirely.
		vol30 := lineCalls[1]
		require.Len(t, vol30, 1)
		assert.Equal(t, "AAPL", vol30[0].Ticker)
	})

	t.Run("a failed chart is skipped, the rest render", func(t *testing.T) {
		t.Parallel()

		charts := &mockChartRenderer{
			RenderRSIFunc: func(title, path string, series []Series) error {
				return ErrRender
			},
		}
		ru := NewReportUsecase(windowRepo(windowFixture()), charts, nil, Options{ChartDir: "charts"})

		rep, err := ru.Generate(ctx)
		require.NoError(t, err)
		assert.Len(t, rep.ChartPaths, 2)
	})

	t.Run("MaxCharts caps rendering", func(t *testing.T) {
		t.Parallel()

		charts := &mockChartRenderer{}
		ru := NewReportUsecase(windowRepo(windowFixture()), charts, nil, Options{ChartDir: "charts", MaxCharts: 1})

		rep, err := ru.Generate(ctx)
		require.NoError(t, err)
		assert.Len(t, rep.ChartPaths, 1)
		assert.Equal(t, 1, charts.RenderLinesCalls+charts.RenderRSICalls)
	})

	t.Run("nil mailer skips mailing", func(t *testing.T) {
		t.Parallel()

		ru := NewReportUsecase(windowRepo(windowFixture()), &mockChartRenderer{}, nil, Options{ChartDir: "charts"})

		rep, err := ru.Generate(ctx)
		require.NoError(t, err)
		assert.False(t, rep.Mailed)
	})

	t.Run("mail failure is returned with the rendered charts", func(t *testing.T) {
		t.Parallel()

		mailer := &mockMailer{
			SendFunc: func(ctx context.Context, subject, textBody, htmlBody string, attachments []string) error {
				return ErrSMTP
			},
		}
		ru := NewReportUsecase(windowRepo(windowFixture()), &mockChartRenderer{}, mailer, Options{ChartDir: "charts"})

		rep, err := ru.Generate(ctx)
		assert.ErrorIs(t, err, ErrSMTP)
		assert.Len(t, rep.ChartPaths, 3)
		assert.False(t, rep.Mailed)
	})
}
