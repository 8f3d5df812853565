package holiday

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/set-night/ibisbots/internal/domain"
)

//go:embed holidays.yaml
var defaultCatalogue []byte

// Holiday is a catalogue entry with a fixed annual date written "--MM-DD".
type Holiday struct {
	ID          string `yaml:"id"`
	Date        string `yaml:"date"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
}

func (h Holiday) monthDay() (time.Month, int, error) {
	if len(h.Date) != 7 || h.Date[:2] != "--" {
		return 0, 0, fmt.Errorf("holiday %s: date %q is not --MM-DD", h.ID, h.Date)
	}
	t, err := time.Parse("--01-02", h.Date)
	if err != nil {
		return 0, 0, fmt.Errorf("holiday %s: %w", h.ID, err)
	}
	if t.Month() == time.February && t.Day() == 29 {
		return 0, 0, fmt.Errorf("holiday %s: February 29 has no fixed annual date", h.ID)
	}
	return t.Month(), t.Day(), nil
}

// ParseCatalogue decodes a YAML holiday list and returns it ordered by
// (date, id). An unsorted list is logged and sorted rather than rejected.
func ParseCatalogue(data []byte, logger *slog.Logger) ([]Holiday, error) {
	var list []Holiday
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("unmarshal holidays: %w", err)
	}
	if len(list) == 0 {
		return nil, domain.ErrEmptyCatalogue
	}

	ids := make(map[string]bool, len(list))
	for _, h := range list {
		if h.ID == "" || ids[h.ID] {
			return nil, fmt.Errorf("holiday id %q is empty or repeated: %w", h.ID, domain.ErrInvalidParams)
		}
		ids[h.ID] = true
		if _, _, err := h.monthDay(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParams, err)
		}
	}

	less := func(a, b Holiday) bool {
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	}
	for i := 0; i+1 < len(list); i++ {
		if !less(list[i], list[i+1]) {
			logger.Warn("holiday file is not sorted", "at", list[i+1].ID)
			sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
			break
		}
	}
	return list, nil
}
