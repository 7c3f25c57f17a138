package dashboard

import (
	"fmt"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const chartDateLayout = "2006-01-02"

// RidershipChart builds the daily ridership line chart with the forecast
// overlaid. A dashed vertical marker labels where the forecast begins.
func RidershipChart(series RidershipSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Daily Subway Ridership",
			Subtitle: "Historical totals with forecast overlay",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	// One shared x axis: historical days followed by forecast timestamps.
	// Each series fills "-" where the other series has values so the lines
	// meet at the boundary instead of overlapping.
	dates := make([]string, 0, len(series.Historical)+len(series.Forecast))
	historical := make([]opts.LineData, 0, cap(dates))
	forecast := make([]opts.LineData, 0, cap(dates))

	for _, d := range series.Historical {
		dates = append(dates, d.Day.Format(chartDateLayout))
		historical = append(historical, opts.LineData{Value: d.Ridership})
		forecast = append(forecast, opts.LineData{Value: "-"})
	}
	for _, p := range series.Forecast {
		dates = append(dates, p.Timestamp.Format(chartDateLayout))
		historical = append(historical, opts.LineData{Value: "-"})
		forecast = append(forecast, opts.LineData{Value: p.Yhat})
	}

	line.SetXAxis(dates)
	line.AddSeries("Historical", historical)

	if len(series.Forecast) > 0 {
		line.AddSeries("Forecast", forecast,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
			charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
				Name:  "Forecast Start",
				XAxis: series.ForecastStart.Format(chartDateLayout),
			}),
		)
	}
	return line
}

// StationChart builds a scatter map of stations positioned by coordinates,
// with symbol size proportional to total ridership.
func StationChart(stations []domain.StationTotal) *charts.Scatter {
	centerLat, centerLon := MapCenter(stations)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Ridership by Station",
			Subtitle: fmt.Sprintf("Centered on %.4f, %.4f", centerLat, centerLon),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value", Scale: opts.Bool(true)}),
	)

	var maxTotal int64
	for _, st := range stations {
		if st.TotalRidership > maxTotal {
			maxTotal = st.TotalRidership
		}
	}

	data := make([]opts.ScatterData, 0, len(stations))
	for _, st := range stations {
		data = append(data, opts.ScatterData{
			Name:       st.StationName,
			Value:      []any{st.Longitude, st.Latitude},
			SymbolSize: symbolSize(st.TotalRidership, maxTotal),
		})
	}
	scatter.AddSeries("Stations", data)
	return scatter
}

// symbolSize maps a station's total onto a 5..30 pixel radius.
func symbolSize(total, maxTotal int64) int {
	if maxTotal <= 0 {
		return 5
	}
	return 5 + int(25*float64(total)/float64(maxTotal))
}
