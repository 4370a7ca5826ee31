package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/nearnode/tripgraph/config"
)

// NewIndexFromConfig loads the airport dataset named by the configuration,
// preferring the local path over the URL when both are set.
func NewIndexFromConfig(cfg config.GeoConfig, geocoder Geocoder) (*Index, error) {
	switch {
	case cfg.AirportsPath != "":
		f, err := os.Open(cfg.AirportsPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		airports, err := ReadAirportsCSV(f)
		if err != nil {
			return nil, err
		}
		return NewIndex(airports, geocoder), nil
	case cfg.AirportsURL != "":
		resp, err := http.Get(cfg.AirportsURL)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("geo: HTTP %d from %s", resp.StatusCode, cfg.AirportsURL)
		}
		airports, err := ReadAirportsCSV(resp.Body)
		if err != nil {
			return nil, err
		}
		return NewIndex(airports, geocoder), nil
	default:
		return nil, fmt.Errorf("geo: no airport dataset configured")
	}
}

// ReadAirportsCSV parses the airport dataset. Expected header:
//
//	iata,icao,name,city,country,lat,lon,tags,lounge,sleeping_pods,city_access_min,layover_quality
//
// tags is a semicolon-separated list. Columns may appear in any order;
// unknown columns are ignored.
func ReadAirportsCSV(r io.Reader) ([]Airport, error) {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	cIATA := idx("iata")
	cICAO := idx("icao")
	cName := idx("name")
	cCity := idx("city")
	cCountry := idx("country")
	cLat := idx("lat")
	cLon := idx("lon")
	cTags := idx("tags")
	cLounge := idx("lounge")
	cPods := idx("sleeping_pods")
	cAccess := idx("city_access_min")
	cQuality := idx("layover_quality")
	if cIATA < 0 || cLat < 0 || cLon < 0 {
		return nil, fmt.Errorf("geo: airport csv missing iata/lat/lon columns")
	}

	get := func(row []string, i int) string {
		if i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	airports := make([]Airport, 0, len(rec)-1)
	for _, row := range rec[1:] {
		iata := strings.ToUpper(get(row, cIATA))
		if iata == "" {
			continue
		}
		lat, err1 := strconv.ParseFloat(get(row, cLat), 64)
		lon, err2 := strconv.ParseFloat(get(row, cLon), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		a := Airport{
			IATA:    iata,
			ICAO:    strings.ToUpper(get(row, cICAO)),
			Name:    get(row, cName),
			City:    get(row, cCity),
			Country: get(row, cCountry),
			Lat:     lat,
			Lon:     lon,
		}
		if tags := get(row, cTags); tags != "" {
			for _, t := range strings.Split(tags, ";") {
				if t = strings.TrimSpace(t); t != "" {
					a.Tags = append(a.Tags, strings.ToLower(t))
				}
			}
		}
		a.HasLounge = parseBool(get(row, cLounge))
		a.HasSleepingPods = parseBool(get(row, cPods))
		if v, err := strconv.Atoi(get(row, cAccess)); err == nil {
			a.CityAccessMin = v
		}
		if v, err := strconv.ParseFloat(get(row, cQuality), 64); err == nil {
			a.LayoverQuality = v
		}
		airports = append(airports, a)
	}
	return airports, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
