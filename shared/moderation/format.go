package moderation

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"hook-screener/internal/models"
)

// FormatSpec is the duration window of one category. A duration is accepted
// when Min <= d <= Max + Tolerance.
type FormatSpec struct {
	MinSeconds              float64 `yaml:"min_seconds"`
	MaxSeconds              float64 `yaml:"max_seconds"`
	ToleranceSeconds        float64 `yaml:"tolerance_seconds"`
	RequiresStructuralCheck bool    `yaml:"requires_structural_check"`
}

func (f FormatSpec) Accepts(seconds float64) bool {
	return seconds >= f.MinSeconds && seconds <= f.MaxSeconds+f.ToleranceSeconds
}

func (f FormatSpec) Midpoint() float64 {
	return (f.MinSeconds + f.MaxSeconds) / 2
}

// Range renders the nominal window, e.g. "12-18".
func (f FormatSpec) Range() string {
	return formatSeconds(f.MinSeconds) + "-" + formatSeconds(f.MaxSeconds)
}

// StructureRules describe the face-then-demo layout of short videos.
type StructureRules struct {
	FaceWindowMinSeconds    float64 `yaml:"face_window_min_seconds"`
	FaceWindowMaxSeconds    float64 `yaml:"face_window_max_seconds"`
	FaceWindowRatio         float64 `yaml:"face_window_ratio"`
	DemoMinSeconds          float64 `yaml:"demo_min_seconds"`
	DemoMaxSeconds          float64 `yaml:"demo_max_seconds"`
	MinAppFootageConfidence float64 `yaml:"min_app_footage_confidence"`
}

// FaceWindow is min(max, max(min, ratio*duration)).
func (r StructureRules) FaceWindow(duration float64) float64 {
	return math.Min(r.FaceWindowMaxSeconds, math.Max(r.FaceWindowMinSeconds, r.FaceWindowRatio*duration))
}

// DemoWindow is what remains after the face window.
func (r StructureRules) DemoWindow(duration float64) float64 {
	return duration - r.FaceWindow(duration)
}

func (r StructureRules) DemoFits(duration float64) bool {
	demo := r.DemoWindow(duration)
	return demo >= r.DemoMinSeconds && demo <= r.DemoMaxSeconds
}

var defaultStructureRules = StructureRules{
	FaceWindowMinSeconds:    4,
	FaceWindowMaxSeconds:    5,
	FaceWindowRatio:         0.3,
	DemoMinSeconds:          5,
	DemoMaxSeconds:          16,
	MinAppFootageConfidence: 0.7,
}

// Profile is a named bundle of duration windows, structure rules and playbook.
type Profile struct {
	Name      string         `yaml:"name"`
	Short     FormatSpec     `yaml:"short"`
	Long      FormatSpec     `yaml:"long"`
	Structure StructureRules `yaml:"structure"`
	Playbook  Playbook       `yaml:"playbook"`
}

// Spec returns the window of a concrete category.
func (p *Profile) Spec(cat models.Category) (FormatSpec, error) {
	switch cat {
	case models.CategoryShort:
		return p.Short, nil
	case models.CategoryLong:
		return p.Long, nil
	default:
		return FormatSpec{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
}

func (p *Profile) IsValidDuration(seconds float64, cat models.Category) bool {
	spec, err := p.Spec(cat)
	if err != nil {
		return false
	}
	return spec.Accepts(seconds)
}

// Classify picks the category whose window midpoint is nearest. Ties go to long.
func (p *Profile) Classify(seconds float64) models.Category {
	if math.Abs(seconds-p.Long.Midpoint()) <= math.Abs(seconds-p.Short.Midpoint()) {
		return models.CategoryLong
	}
	return models.CategoryShort
}

// Fits lists the categories whose window accepts seconds.
func (p *Profile) Fits(seconds float64) []models.Category {
	var out []models.Category
	for _, cat := range models.Categories {
		if p.IsValidDuration(seconds, cat) {
			out = append(out, cat)
		}
	}
	return out
}

func (p *Profile) validate() error {
	for _, cat := range models.Categories {
		spec, _ := p.Spec(cat)
		if spec.MinSeconds < 0 || spec.MaxSeconds < spec.MinSeconds || spec.ToleranceSeconds < 0 {
			return fmt.Errorf("profile %s: invalid %s window %s (+%s)", p.Name, cat, spec.Range(), formatSeconds(spec.ToleranceSeconds))
		}
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

var profiles = map[string]func() *Profile{
	// Reviewer screen: exact windows, no tolerance.
	"interactive": func() *Profile {
		pb := DefaultPlaybook()
		return &Profile{
			Name:      "interactive",
			Short:     FormatSpec{MinSeconds: 12, MaxSeconds: 18, RequiresStructuralCheck: true},
			Long:      FormatSpec{MinSeconds: 6, MaxSeconds: 9},
			Structure: defaultStructureRules,
			Playbook:  pb,
		}
	},
	"batch": func() *Profile {
		pb := DefaultPlaybook()
		pb.GermanIndicators = append([]string(nil), compactGermanIndicators...)
		return &Profile{
			Name:      "batch",
			Short:     FormatSpec{MinSeconds: 10, MaxSeconds: 20, ToleranceSeconds: 1, RequiresStructuralCheck: true},
			Long:      FormatSpec{MinSeconds: 5, MaxSeconds: 10, ToleranceSeconds: 1},
			Structure: defaultStructureRules,
			Playbook:  pb,
		}
	},
}

// ProfileByName returns a fresh copy of a built-in profile.
func ProfileByName(name string) (*Profile, error) {
	build, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return build(), nil
}

func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
