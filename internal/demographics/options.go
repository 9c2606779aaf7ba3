// Package demographics turns the phase two distributions into ranked options
// and tracks the visitor's overrides until they confirm.
package demographics

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/skinstric/onboarding/internal/skinstric"
)

// Category is one of the three reviewed attributes.
type Category string

const (
	Race Category = "race"
	Age  Category = "age"
	Sex  Category = "sex"
)

// Categories lists the categories in tab order.
var Categories = []Category{Race, Age, Sex}

// ParseCategory returns the category for s, defaulting to Race.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Age:
		return Age
	case Sex:
		return Sex
	}
	return Race
}

// Title returns the display name of the category.
func (c Category) Title() string {
	return title(string(c))
}

// EmptyLabel is shown when a category has no options.
const EmptyLabel = "—"

// title upper-cases the first letter of each word. A Caser keeps state, so
// one is built per call.
func title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// Option is one ranked choice for a category.
type Option struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"` // percent, two decimals
}

// ToLabel replaces underscores with spaces and upper-cases the first letter of each word.
func ToLabel(key string) string {
	return title(strings.ReplaceAll(key, "_", " "))
}

// ToPercent scales a weight to a percentage rounded to two decimals.
func ToPercent(weight float64) float64 {
	return math.Round(weight*100*100) / 100
}

// Options derives the ranked options for one category: labels cased,
// weights scaled to percent, sorted descending. Equal percentages keep
// their response order.
func Options(weights skinstric.Weights) []Option {
	options := make([]Option, 0, len(weights))
	for _, w := range weights {
		options = append(options, Option{
			Key:   w.Key,
			Label: ToLabel(w.Key),
			Value: ToPercent(w.Weight),
		})
	}
	slices.SortStableFunc(options, func(a, b Option) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})
	return options
}
