package provider

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/nearnode/tripgraph/trip"
)

// SQLStore serves legs from a MySQL table seeded out-of-band (sample data,
// scraped schedules, mistake-fare sweeps). It backs the planner when live
// APIs are not configured and doubles as the fixture source in staging.
//
// Schema:
//
//	CREATE TABLE legs (
//	  mode         VARCHAR(8)  NOT NULL,
//	  origin_code  VARCHAR(3)  NOT NULL,
//	  origin_lat   DOUBLE      NOT NULL,
//	  origin_lon   DOUBLE      NOT NULL,
//	  dest_code    VARCHAR(3)  NOT NULL,
//	  dest_lat     DOUBLE      NOT NULL,
//	  dest_lon     DOUBLE      NOT NULL,
//	  departure    DATETIME    NOT NULL,
//	  arrival      DATETIME    NOT NULL,
//	  price_eur    DOUBLE      NOT NULL,
//	  carrier      VARCHAR(64) NOT NULL,
//	  provider_ref VARCHAR(64) NOT NULL,
//	  KEY pair_date (mode, origin_code, dest_code, departure)
//	);
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens the MySQL-backed leg store.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// NewSQLStore wraps an existing handle (used by tests with a stub driver).
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Name() string { return "sqlstore" }

func (s *SQLStore) Modes() []trip.Mode {
	return []trip.Mode{trip.ModeFlight, trip.ModeTrain}
}

// FetchLegs returns the stored legs for the pair departing on the date.
func (s *SQLStore) FetchLegs(ctx context.Context, origin, destination trip.Location, date time.Time, mode trip.Mode) ([]trip.Leg, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	rows, err := s.db.QueryContext(ctx, `
        SELECT origin_lat, origin_lon, dest_lat, dest_lon,
               departure, arrival, price_eur, carrier, provider_ref
        FROM legs
        WHERE mode=? AND origin_code=? AND dest_code=? AND departure>=? AND departure<?
        ORDER BY departure
    `, string(mode), origin.Code, destination.Code, dayStart, dayEnd)
	if err != nil {
		return nil, NewTransient(s.Name(), err)
	}
	defer rows.Close()

	legs := make([]trip.Leg, 0, 8)
	for rows.Next() {
		var oLat, oLon, dLat, dLon, price float64
		var dep, arr time.Time
		var carrier, ref string
		if err := rows.Scan(&oLat, &oLon, &dLat, &dLon, &dep, &arr, &price, &carrier, &ref); err != nil {
			return nil, NewTransient(s.Name(), err)
		}
		legs = append(legs, trip.Leg{
			Mode:        mode,
			Origin:      trip.Location{Latitude: oLat, Longitude: oLon, Code: origin.Code},
			Destination: trip.Location{Latitude: dLat, Longitude: dLon, Code: destination.Code},
			Departure:   dep,
			Arrival:     arr,
			PriceEUR:    price,
			Carrier:     carrier,
			ProviderRef: ref,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, NewTransient(s.Name(), err)
	}
	return legs, nil
}
