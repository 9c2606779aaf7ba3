package demographics

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skinstric/onboarding/internal/skinstric"
)

func sampleData() skinstric.Demographics {
	return skinstric.Demographics{
		Race: skinstric.Weights{
			{Key: "white", Weight: 0.1},
			{Key: "east_asian", Weight: 0.6},
			{Key: "black", Weight: 0.3},
		},
		Age: skinstric.Weights{
			{Key: "20-29", Weight: 0.55},
			{Key: "30-39", Weight: 0.45},
		},
		Gender: skinstric.Weights{
			{Key: "female", Weight: 0.8},
			{Key: "male", Weight: 0.2},
		},
	}
}

func TestToLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"white", "White"},
		{"east_asian", "East Asian"},
		{"middle eastern", "Middle Eastern"},
		{"latino_hispanic", "Latino Hispanic"},
		{"20-29", "20-29"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToLabel(tt.in); got != tt.want {
			t.Errorf("ToLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToPercent(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 50},
		{0.123456, 12.35},
		{0.3, 30},
		{1, 100},
		{0, 0},
	}
	for _, tt := range tests {
		if got := ToPercent(tt.in); got != tt.want {
			t.Errorf("ToPercent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOptions_DefaultIsArgMax(t *testing.T) {
	got := Options(skinstric.Weights{{Key: "a", Weight: 0.5}, {Key: "b", Weight: 0.3}, {Key: "c", Weight: 0.2}})
	want := []Option{
		{Key: "a", Label: "A", Value: 50},
		{Key: "b", Label: "B", Value: 30},
		{Key: "c", Label: "C", Value: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Options() mismatch (-want +got):\n%s", diff)
	}

	r := NewReview(skinstric.Demographics{Race: skinstric.Weights{{Key: "a", Weight: 0.5}, {Key: "b", Weight: 0.3}, {Key: "c", Weight: 0.2}}})
	if sel := r.Selected(Race); sel != (Pick{Label: "A", Value: 50}) {
		t.Errorf("Selected(Race) = %+v, want A/50", sel)
	}
}

func TestOptions_StableTies(t *testing.T) {
	got := Options(skinstric.Weights{
		{Key: "first", Weight: 0.25},
		{Key: "top", Weight: 0.5},
		{Key: "second", Weight: 0.25},
	})
	keys := []string{got[0].Key, got[1].Key, got[2].Key}
	if diff := cmp.Diff([]string{"top", "first", "second"}, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOptions_Empty(t *testing.T) {
	if got := Options(nil); len(got) != 0 {
		t.Errorf("Options(nil) = %v, want empty", got)
	}
	r := NewReview(skinstric.Demographics{})
	if got := r.Selected(Age); got.Label != EmptyLabel || got.Value != 0 {
		t.Errorf("Selected(Age) = %+v, want placeholder", got)
	}
}

func TestReview_PickLeavesOthersUntouched(t *testing.T) {
	r := NewReview(sampleData())
	before := r.Final()

	if err := r.Pick(Race, "white"); err != nil {
		t.Fatalf("Pick() error = %v", err)
	}

	after := r.Final()
	if after.Race != (Pick{Label: "White", Value: 10}) {
		t.Errorf("Race = %+v, want White/10", after.Race)
	}
	if after.Age != before.Age {
		t.Errorf("Age changed: %+v -> %+v", before.Age, after.Age)
	}
	if after.Sex != before.Sex {
		t.Errorf("Sex changed: %+v -> %+v", before.Sex, after.Sex)
	}
	if !r.Overridden(Race) || r.Overridden(Age) {
		t.Error("Overridden() reports the wrong categories")
	}
}

func TestReview_ResetRestoresPredictions(t *testing.T) {
	r := NewReview(sampleData())
	want := Picks{
		Race: Pick{Label: "East Asian", Value: 60},
		Age:  Pick{Label: "20-29", Value: 55},
		Sex:  Pick{Label: "Female", Value: 80},
	}

	_ = r.Pick(Race, "black")
	_ = r.Pick(Age, "30-39")
	_ = r.Pick(Sex, "male")
	if r.Final() == want {
		t.Fatal("overrides had no effect")
	}

	r.Reset()
	if diff := cmp.Diff(want, r.Final()); diff != "" {
		t.Errorf("Final() after Reset mismatch (-want +got):\n%s", diff)
	}
}

func TestReview_PickUnknown(t *testing.T) {
	r := NewReview(sampleData())
	if err := r.Pick(Sex, "robot"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("Pick() error = %v, want ErrUnknownOption", err)
	}
	if r.Overridden(Sex) {
		t.Error("failed pick should not override")
	}
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{"race": Race, "AGE": Age, " sex ": Sex, "": Race, "gender": Race}
	for in, want := range tests {
		if got := ParseCategory(in); got != want {
			t.Errorf("ParseCategory(%q) = %q, want %q", in, got, want)
		}
	}
	if Sex.Title() != "Sex" {
		t.Errorf("Title() = %q", Sex.Title())
	}
}

func TestPicks_Get(t *testing.T) {
	p := Picks{Race: Pick{Label: "A"}, Age: Pick{Label: "B"}, Sex: Pick{Label: "C"}}
	if p.Get(Race).Label != "A" || p.Get(Age).Label != "B" || p.Get(Sex).Label != "C" {
		t.Errorf("Get() returned wrong picks: %+v", p)
	}
}

func TestReview_SelectedKey(t *testing.T) {
	r := NewReview(sampleData())
	if got := r.SelectedKey(Race); got != "east_asian" {
		t.Errorf("SelectedKey(Race) = %q, want east_asian", got)
	}
	_ = r.Pick(Race, "black")
	if got := r.SelectedKey(Race); got != "black" {
		t.Errorf("SelectedKey(Race) after pick = %q, want black", got)
	}
	if got := NewReview(skinstric.Demographics{}).SelectedKey(Age); got != "" {
		t.Errorf("SelectedKey on empty = %q", got)
	}
}
