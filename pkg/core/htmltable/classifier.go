package htmltable

import "strings"

// Category is what kind of data a table holds.
type Category string

const (
	CategoryRevenue             Category = "revenue"
	CategoryOperatingStatistics Category = "operating_statistics"
	CategorySegment             Category = "segment"
	CategoryUnclassified        Category = "unclassified"
)

// Classification is the result of Classify. Scores holds an entry for every
// category the table qualifies for; Category is the strongest of them.
type Classification struct {
	Category Category
	Score    int
	Scores   map[Category]int
	Interim  bool
}

// Matches reports whether the table qualifies for cat.
func (c Classification) Matches(cat Category) bool {
	_, ok := c.Scores[cat]
	return ok
}

var interimMarkers = []string{
	"three months", "quarter ended", "quarterly",
	"q1 ", "q2 ", "q3 ", "q4 ",
	"first quarter", "second quarter", "third quarter", "fourth quarter",
}

// IsInterim reports whether normalized table text describes a sub-annual period.
func IsInterim(text string) bool {
	if containsAny(text, interimMarkers...) {
		return true
	}
	return strings.Contains(text, "period ended") && !strings.Contains(text, "year")
}

// Classify scores normalized table text. It has no side effects and is safe
// to call concurrently.
func Classify(text string) Classification {
	c := Classification{Category: CategoryUnclassified, Scores: map[Category]int{}}
	if IsInterim(text) {
		c.Interim = true
		return c
	}

	if s, ok := revenueScore(text); ok {
		c.Scores[CategoryRevenue] = s
	}
	if s, ok := operatingStatsScore(text); ok {
		c.Scores[CategoryOperatingStatistics] = s
	}
	if s, ok := segmentScore(text); ok {
		c.Scores[CategorySegment] = s
	}

	for _, cat := range []Category{CategoryRevenue, CategoryOperatingStatistics, CategorySegment} {
		if s, ok := c.Scores[cat]; ok && s > c.Score {
			c.Category, c.Score = cat, s
		}
	}
	return c
}

func revenueScore(text string) (int, bool) {
	hasContext := containsAny(text,
		"operating revenue", "total revenue", "revenue by source", "revenue by type", "passenger revenues") ||
		(strings.Contains(text, "revenue") && containsAny(text, "operating", "total"))

	categories := 0
	if containsAny(text, "passenger", "transportation") {
		categories++
	}
	if containsAny(text, "cargo", "freight", "mail") {
		categories++
	}
	if containsAny(text, "other", "ancillary", "loyalty", "trueblue", "mileageplus", "mileage plus") {
		categories++
	}

	explicit := containsAny(text,
		"revenue composition", "revenue breakdown", "revenues by category", "revenues by type", "operating revenues by") ||
		(strings.Contains(text, "consolidated statements of operations") && categories >= 2)

	if categories == 0 || !(hasContext || explicit) {
		return 0, false
	}
	score := categories
	if explicit {
		score++
	}
	if containsAny(text, "year ended", "years ended", "twelve months") {
		score++
	}
	return score, true
}

func operatingStatsScore(text string) (int, bool) {
	keywords := 0

	hasASM := containsAny(text, "available seat miles", "available seat-miles", "available seat mile",
		"capacity (asm", "capacity(asm", "capacity, asm")
	if !hasASM && strings.Contains(text, " asm") && !containsAny(text, "rasm", "prasm", "casm") {
		hasASM = true
	}
	if hasASM {
		keywords++
	}

	hasRPM := containsAny(text, "revenue passenger miles", "revenue passenger-miles", "revenue passenger mile",
		"traffic (rpm", "traffic(rpm", "traffic, rpm")
	if !hasRPM && strings.Contains(text, " rpm") && !strings.Contains(text, "prpm") {
		hasRPM = true
	}
	if hasRPM {
		keywords++
	}

	groups := [][]string{
		{"load factor", "passenger load", "load %"},
		{"rasm", "prasm", "revenue per asm", "unit revenue", "passenger yield", "yield per"},
		{"casm", "cost per asm", "unit cost", "operating expense per asm", "operating cost per asm"},
		{"passengers enplaned", "passengers carried", "scheduled service passengers"},
		{"departures", "flights operated", "flight operations"},
		{"aircraft in service", "aircraft at period end", "average aircraft", "aircraft operated"},
		{"block hours", "flight hours", "aircraft utilization"},
	}
	for _, g := range groups {
		if containsAny(text, g...) {
			keywords++
		}
	}
	if !containsAny(text, "passengers enplaned", "passengers carried", "scheduled service passengers") &&
		strings.Contains(text, "passengers") && !strings.Contains(text, "revenue passenger miles") {
		keywords++
	}

	labelled := containsAny(text, "operating statistics", "operational statistics", "operating data",
		"statistical data", "operating performance", "key operating statistics")

	if keywords >= 2 || (labelled && keywords >= 1) {
		if labelled {
			keywords++
		}
		return keywords, true
	}
	return 0, false
}

func segmentScore(text string) (int, bool) {
	regions := 0
	for _, r := range []string{"domestic", "atlantic", "pacific", "latin"} {
		if strings.Contains(text, r) {
			regions++
		}
	}
	if regions == 0 || !containsAny(text, "revenue", "operating income") {
		return 0, false
	}
	return regions, true
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
