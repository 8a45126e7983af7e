package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recitation-service/internal/models"
)

const defaultTimeout = 10 * time.Second

// Loader fetches the rule table and the store catalog from the remote
// configuration source. Both documents are fetched once at startup;
// nothing rule-dependent may run until Load has returned.
type Loader struct {
	baseURL string
	client  *http.Client
}

func NewLoader(baseURL string) *Loader {
	return &Loader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// Load fetches rules and catalog concurrently and joins on both. Either
// failure fails the whole load: the service cannot validate pages or
// price purchases with half a configuration.
func (l *Loader) Load(ctx context.Context) (*models.RuleTable, []models.StoreItem, error) {
	var (
		table   models.RuleTable
		catalog []models.StoreItem
	)

	rulesErr := make(chan error, 1)
	catalogErr := make(chan error, 1)

	go func() {
		rulesErr <- l.getJSON(ctx, "/rules", &table)
	}()
	go func() {
		catalogErr <- l.getJSON(ctx, "/store", &catalog)
	}()

	if err := <-rulesErr; err != nil {
		<-catalogErr
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	if err := <-catalogErr; err != nil {
		return nil, nil, fmt.Errorf("failed to load store catalog: %w", err)
	}

	applyDefaults(&table)
	return &table, catalog, nil
}

func (l *Loader) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// applyDefaults fills the gaps a sparse remote document may leave.
func applyDefaults(table *models.RuleTable) {
	if table.QuestionsPerSession <= 0 {
		table.QuestionsPerSession = 5
	}
	if table.BaseXP <= 0 {
		table.BaseXP = 100
	}
	if len(table.LevelCurve) == 0 {
		table.LevelCurve = []models.LevelTier{{ThresholdXP: 0, Title: "Beginner", Reward: 0}}
	}
}
