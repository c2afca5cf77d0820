package detection

import (
	"sort"
	"strings"
)

// DefaultClasses maps the classifier's class labels to canonical inventory names.
func DefaultClasses() map[string]string {
	return map[string]string{
		"graduated_cylinder":  "Graduated Cylinder",
		"beaker":              "Beaker",
		"compass":             "Compass",
		"digital_balance":     "Digital Balance",
		"erlenmeyer_flask":    "Erlenmeyer Flask",
		"funnel":              "Funnel",
		"horseshoe_magnet":    "Horseshoe Magnet",
		"test_tube_rack":      "Test Tube Rack",
		"triple_beam_balance": "Triple Beam Balance",
		"tripod":              "Tripod",
	}
}

// Mapper translates class labels into inventory item names.
type Mapper struct {
	classes map[string]string
}

// NewMapper builds a mapper over the given table; nil uses DefaultClasses.
// Labels are matched case-insensitively.
func NewMapper(classes map[string]string) *Mapper {
	if classes == nil {
		classes = DefaultClasses()
	}
	normalized := make(map[string]string, len(classes))
	for label, item := range classes {
		label = normalizeLabel(label)
		item = strings.TrimSpace(item)
		if label == "" || item == "" {
			continue
		}
		normalized[label] = item
	}
	return &Mapper{classes: normalized}
}

// Item returns the inventory name for a class label.
func (m *Mapper) Item(label string) (string, bool) {
	item, ok := m.classes[normalizeLabel(label)]
	return item, ok
}

// Map returns the sorted, deduplicated item names for labels that are both
// known to the table and present in inventory. Unknown labels are dropped.
func (m *Mapper) Map(labels []string, inventory map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		item, ok := m.Item(label)
		if !ok {
			continue
		}
		if _, stocked := inventory[item]; !stocked {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
