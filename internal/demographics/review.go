package demographics

import (
	"errors"
	"fmt"

	"github.com/skinstric/onboarding/internal/skinstric"
)

// ErrUnknownOption is returned when a picked key is not among a category's options.
var ErrUnknownOption = errors.New("unknown option")

// Pick is the label and percentage chosen for one category.
type Pick struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Picks are the three final values written on confirm.
type Picks struct {
	Race Pick `json:"race"`
	Age  Pick `json:"age"`
	Sex  Pick `json:"sex"`
}

// Get returns the pick for a category.
func (p Picks) Get(c Category) Pick {
	switch c {
	case Age:
		return p.Age
	case Sex:
		return p.Sex
	}
	return p.Race
}

// Review holds the model output and the visitor's per-category overrides.
// A Review is not safe for concurrent use.
type Review struct {
	options   map[Category][]Option
	overrides map[Category]Option
}

// NewReview derives the ranked options for all categories.
func NewReview(data skinstric.Demographics) *Review {
	return &Review{
		options: map[Category][]Option{
			Race: Options(data.Race),
			Age:  Options(data.Age),
			Sex:  Options(data.Gender),
		},
		overrides: make(map[Category]Option),
	}
}

// Options returns the ranked options of a category.
func (r *Review) Options(c Category) []Option {
	return r.options[c]
}

// Predicted returns the arg-max option of the model output.
func (r *Review) Predicted(c Category) Pick {
	opts := r.options[c]
	if len(opts) == 0 {
		return Pick{Label: EmptyLabel}
	}
	return Pick{Label: opts[0].Label, Value: opts[0].Value}
}

// Selected returns the override for c if present, else the prediction.
func (r *Review) Selected(c Category) Pick {
	if opt, ok := r.overrides[c]; ok {
		return Pick{Label: opt.Label, Value: opt.Value}
	}
	return r.Predicted(c)
}

// SelectedKey returns the key of the selected option, "" when c has none.
func (r *Review) SelectedKey(c Category) string {
	if opt, ok := r.overrides[c]; ok {
		return opt.Key
	}
	if opts := r.options[c]; len(opts) > 0 {
		return opts[0].Key
	}
	return ""
}

// Overridden reports whether the visitor picked a value for c.
func (r *Review) Overridden(c Category) bool {
	_, ok := r.overrides[c]
	return ok
}

// Pick overrides category c with the option identified by key. Other
// categories are left untouched.
func (r *Review) Pick(c Category, key string) error {
	for _, opt := range r.options[c] {
		if opt.Key == key {
			r.overrides[c] = opt
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q", ErrUnknownOption, c, key)
}

// Reset clears every override.
func (r *Review) Reset() {
	clear(r.overrides)
}

// Final returns the current selection for all categories.
func (r *Review) Final() Picks {
	return Picks{
		Race: r.Selected(Race),
		Age:  r.Selected(Age),
		Sex:  r.Selected(Sex),
	}
}
