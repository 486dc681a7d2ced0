package reporting

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"wallet-credit-score/internal/domain"
)

// DefaultDPI is the chart resolution.
const DefaultDPI = 300

// ErrNoData is returned when a chart has nothing to plot.
var ErrNoData = errors.New("reporting: no data to plot")

const (
	distributionTitle = "Credit Score Distribution (KMeans-based)"
	featureMeansTitle = "Mean Feature Values by Cluster"
)

// RenderScoreDistributionChart writes a 10x6in PNG bar chart of wallet
// counts per credit score, highest score first.
func RenderScoreDistributionChart(scores []domain.WalletScore, path string, dpi float64) error {
	if len(scores) == 0 {
		return ErrNoData
	}

	rows := bandRows(scores)
	values := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		values[i] = float64(r.Wallets)
		names[i] = strconv.Itoa(r.Score)
	}

	p := plot.New()
	p.Title.Text = distributionTitle
	p.X.Label.Text = "Credit Score"
	p.Y.Label.Text = "Number of Wallets"

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)

	return savePNG(p, 10*vg.Inch, 6*vg.Inch, dpi, path)
}

// featureMeansColumns are the charted features, in x-axis order.
var featureMeansColumns = []struct {
	name  string
	value func(FeatureMeansRow) float64
}{
	{"borrow", func(r FeatureMeansRow) float64 { return r.Borrow }},
	{"deposit", func(r FeatureMeansRow) float64 { return r.Deposit }},
	{"repay", func(r FeatureMeansRow) float64 { return r.Repay }},
	{"net_position", func(r FeatureMeansRow) float64 { return r.NetPosition }},
	{"tx_count", func(r FeatureMeansRow) float64 { return r.TxCount }},
}

// RenderFeatureMeansChart writes a 12x6in PNG of grouped bars with the
// features (borrow, deposit, repay, net_position, tx_count) on the x axis and
// one bar per credit score, lowest score first.
func RenderFeatureMeansChart(features []*domain.WalletFeatures, scores []domain.WalletScore, path string, dpi float64) error {
	if len(scores) == 0 {
		return ErrNoData
	}
	rows, err := FeatureMeans(features, scores)
	if err != nil {
		return err
	}
	p, _, err := featureMeansPlot(rows)
	if err != nil {
		return err
	}
	return savePNG(p, 12*vg.Inch, 6*vg.Inch, dpi, path)
}

// featureMeansPlot builds the grouped chart and returns one bar set per row.
func featureMeansPlot(rows []FeatureMeansRow) (*plot.Plot, []*plotter.BarChart, error) {
	p := plot.New()
	p.Title.Text = featureMeansTitle
	p.X.Label.Text = "Features"
	p.Y.Label.Text = "Average Value"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	width := vg.Points(12)
	mid := float64(len(rows)-1) / 2
	sets := make([]*plotter.BarChart, 0, len(rows))
	for i, r := range rows {
		values := make(plotter.Values, len(featureMeansColumns))
		for j, c := range featureMeansColumns {
			values[j] = c.value(r)
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, nil, fmt.Errorf("score %d bars: %w", r.Score, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-mid) * width
		p.Add(bars)
		p.Legend.Add(strconv.Itoa(r.Score), bars)
		sets = append(sets, bars)
	}

	names := make([]string, len(featureMeansColumns))
	for i, c := range featureMeansColumns {
		names[i] = c.name
	}
	p.NominalX(names...)

	return p, sets, nil
}

func savePNG(p *plot.Plot, w, h vg.Length, dpi float64, path string) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(dpi)))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
