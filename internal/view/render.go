// Package view renders a screen's RequestState as the single HTML page.
package view

import (
	"embed"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Page is everything the page template needs.
type Page struct {
	Mode     models.Mode
	State    models.RequestState
	Timezone *time.Location
	// RequestGeolocation asks the browser for its position once.
	RequestGeolocation bool
}

type card struct {
	Time        string
	Temperature string
	Humidity    int
	Condition   string
	WindSpeed   string
}

type pageData struct {
	Forecast           bool
	Loading            bool
	Error              string
	LocationName       string
	Cards              []card
	RequestGeolocation bool
}

func Render(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, build(p))
}

func build(p Page) pageData {
	data := pageData{
		Forecast:           p.Mode == models.ModeForecast,
		RequestGeolocation: p.RequestGeolocation,
	}

	switch st := p.State.(type) {
	case models.Loading:
		data.Loading = true
	case models.Failed:
		data.Error = st.Message
	case models.Success:
		data.LocationName = st.View.LocationName
		data.Cards = cards(st.View.Samples, data.Forecast, p.Timezone)
	case models.Idle, nil:
	}
	return data
}

func cards(samples []models.Sample, withTime bool, tz *time.Location) []card {
	if tz == nil {
		tz = time.Local
	}
	out := make([]card, 0, len(samples))
	for _, s := range samples {
		c := card{
			Temperature: formatFloat(s.TemperatureCelsius),
			Humidity:    s.HumidityPercent,
			Condition:   s.ConditionDescription,
			WindSpeed:   formatFloat(s.WindSpeedMetersPerSecond),
		}
		if withTime {
			c.Time = time.Unix(s.Timestamp, 0).In(tz).Format("15:04")
		}
		out = append(out, c)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
