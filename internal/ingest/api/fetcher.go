// Package api fetches the statistical datasets from the DataSaudi API and
// turns their rows into text records.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Yates-Labs/bayan/internal/lang"
	"github.com/Yates-Labs/bayan/internal/rag"
)

const baseURL = "https://api.datasaudi.sa/tesseract/data.jsonrecords"

// Endpoint is one dataset query. URL has no locale parameter.
type Endpoint struct {
	Name string
	URL  string
}

// DefaultEndpoints returns the datasets indexed by default.
func DefaultEndpoints() []Endpoint {
	q := func(query string) string { return baseURL + "?" + query }
	return []Endpoint{
		{"gastat_gdp_quarter", q("cube=gastat_gdp&drilldowns=Economic+Activity+Section,Quarter&measures=GDP")},
		{"gastat_gdp_year", q("cube=gastat_gdp&drilldowns=Economic+Activity+Section,Year&measures=GDP")},
		{"gastat_inflation_city_yoy", q("cube=gastat_inflation_city_yoy&drilldowns=Year,City&measures=Inflation,Consumer+Price+Index")},
		{"gastat_inflation_city_mom", q("cube=gastat_inflation_city_yoy&drilldowns=Month,City&measures=Inflation,Consumer+Price+Index")},
		{"gastat_wpi_city_yoy", q("cube=gastat_wpi_city_yoy&drilldowns=Year,City&measures=Wholesale%20Price%20Index%20Growth,Wholesale%20Price%20Index")},
		{"gastat_ipi_index_economic_activity", q("cube=gastat_ipi_index_economic_activity&drilldowns=Economic+Sectors,Month&measures=Industrial+Production+Index,Percentage+change")},
		{"pmi", q("cube=pmi&drilldowns=Month&measures=Purchasing+Manager+Index")},
		{"mof_government_revenues_expenditures_quarter", q("cube=mof_government_revenues_expenditures_quarter&drilldowns=Type,Quarter&measures=SAR+Billions")},
		{"sama_money_supply_year", q("cube=sama_money_supply_year&drilldowns=Year&measures=Million+SAR")},
		{"sama_money_supply_month", q("cube=sama_money_supply_month&drilldowns=Month&measures=Million+SAR")},
	}
}

// FileName returns the file an endpoint's response is saved under.
func FileName(name string, l lang.Language) string {
	return fmt.Sprintf("%s.%s.json", name, l)
}

// Fetcher downloads every endpoint in both languages into Dir.
type Fetcher struct {
	Dir    string
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a Fetcher writing into dir.
func NewFetcher(dir string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{Dir: dir, client: &http.Client{Timeout: timeout}, logger: logger}
}

// FetchAll saves each endpoint once per language and returns the written
// paths. A failed download is logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context, endpoints []Endpoint) ([]string, error) {
	var saved []string
	for _, ep := range endpoints {
		for _, l := range []lang.Language{lang.English, lang.Arabic} {
			path := filepath.Join(f.Dir, FileName(ep.Name, l))
			url := fmt.Sprintf("%s&locale=%s", ep.URL, l)

			if err := f.fetchOne(ctx, url, path); err != nil {
				if ctx.Err() != nil {
					return saved, ctx.Err()
				}
				f.logger.Error("api fetch failed, skipping", zap.String("endpoint", ep.Name), zap.String("locale", l.String()), zap.Error(err))
				continue
			}
			f.logger.Info("api data saved", zap.String("url", url), zap.String("path", path))
			saved = append(saved, path)
		}
	}
	return saved, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return rag.WriteJSON(path, payload)
}
