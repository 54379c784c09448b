package xbrl

import (
	"sort"
	"strings"
	"time"
)

// Period is either an instant or a start/end duration.
type Period struct {
	Instant time.Time
	Start   time.Time
	End     time.Time
}

func (p Period) IsInstant() bool { return !p.Instant.IsZero() }

// Member is one dimension qualifier of a context, e.g.
// srt:ProductOrServiceAxis = us-gaap:PassengerMember.
type Member struct {
	Dimension string
	Value     string
}

// Context is a parsed xbrli:context.
type Context struct {
	ID      string
	Period  Period
	Members []Member
}

// ContextSet is a set of context ids.
type ContextSet map[string]struct{}

func (s ContextSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the ids in sorted order.
func (s ContextSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type segmentKey struct {
	year   int
	member string
}

// ContextIndex maps fiscal years, and (fiscal year, segment member) pairs, to
// the contexts that report them. It is read-only once built.
type ContextIndex struct {
	contexts  map[string]Context
	byYear    map[int]ContextSet
	bySegment map[segmentKey]ContextSet
}

// annual durations are accepted in this window to allow 52/53 week years.
const (
	minAnnualDays    = 330
	maxAnnualDays    = 400
	anniversarySlack = 7 * 24 * time.Hour
)

// BuildContextIndex indexes every context of doc. fiscalYearEnd supplies the
// month and day balance sheet instants must fall on; a zero value means
// December 31.
func BuildContextIndex(doc *Document, fiscalYearEnd time.Time) *ContextIndex {
	endMonth, endDay := time.December, 31
	if !fiscalYearEnd.IsZero() {
		endMonth, endDay = fiscalYearEnd.Month(), fiscalYearEnd.Day()
	}

	idx := &ContextIndex{
		contexts:  make(map[string]Context),
		byYear:    make(map[int]ContextSet),
		bySegment: make(map[segmentKey]ContextSet),
	}

	for _, n := range doc.contexts {
		ctx := parseContext(n)
		idx.contexts[ctx.ID] = ctx

		fy, ok := fiscalYearOf(ctx.Period, endMonth, endDay)
		if !ok {
			continue
		}
		switch len(ctx.Members) {
		case 0:
			add(idx.byYear, fy, ctx.ID)
		case 1:
			_, member := splitQName(ctx.Members[0].Value)
			key := segmentKey{year: fy, member: member}
			if idx.bySegment[key] == nil {
				idx.bySegment[key] = make(ContextSet)
			}
			idx.bySegment[key][ctx.ID] = struct{}{}
		}
	}
	return idx
}

func add(m map[int]ContextSet, year int, id string) {
	if m[year] == nil {
		m[year] = make(ContextSet)
	}
	m[year][id] = struct{}{}
}

// HasContexts reports whether the document declared any contexts at all.
func (x *ContextIndex) HasContexts() bool {
	return len(x.contexts) > 0
}

// ForYear returns the consolidated (dimensionless) contexts of fiscal year fy.
// The result may be empty.
func (x *ContextIndex) ForYear(fy int) ContextSet {
	if s, ok := x.byYear[fy]; ok {
		return s
	}
	return ContextSet{}
}

// ForYearSegment returns contexts of fiscal year fy qualified by exactly one
// explicit member whose local name is member, e.g. "PassengerMember".
func (x *ContextIndex) ForYearSegment(fy int, member string) ContextSet {
	_, local := splitQName(member)
	if s, ok := x.bySegment[segmentKey{year: fy, member: local}]; ok {
		return s
	}
	return ContextSet{}
}

// Context returns a parsed context by id.
func (x *ContextIndex) Context(id string) (Context, bool) {
	c, ok := x.contexts[id]
	return c, ok
}

// Years lists the fiscal years with at least one consolidated context, newest first.
func (x *ContextIndex) Years() []int {
	years := make([]int, 0, len(x.byYear))
	for y := range x.byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

func fiscalYearOf(p Period, endMonth time.Month, endDay int) (int, bool) {
	if p.IsInstant() {
		return anniversaryYear(p.Instant, endMonth, endDay)
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return 0, false
	}
	days := int(p.End.Sub(p.Start).Hours() / 24)
	if days < minAnnualDays || days > maxAnnualDays {
		return 0, false
	}
	return anniversaryYear(p.End, endMonth, endDay)
}

// anniversaryYear finds the fiscal year whose closing date lies within a week
// of d.
func anniversaryYear(d time.Time, endMonth time.Month, endDay int) (int, bool) {
	for _, y := range []int{d.Year(), d.Year() - 1, d.Year() + 1} {
		anniv := time.Date(y, endMonth, endDay, 0, 0, 0, 0, time.UTC)
		diff := d.Sub(anniv)
		if diff < 0 {
			diff = -diff
		}
		if diff <= anniversarySlack {
			return y, true
		}
	}
	return 0, false
}

func parseContext(n *Node) Context {
	ctx := Context{ID: n.Attr("id")}
	var walk func(*Node)
	walk = func(c *Node) {
		switch c.Name.Local {
		case "instant":
			ctx.Period.Instant = parseDate(c.Text())
		case "startDate":
			ctx.Period.Start = parseDate(c.Text())
		case "endDate":
			ctx.Period.End = parseDate(c.Text())
		case "explicitMember":
			ctx.Members = append(ctx.Members, Member{Dimension: c.Attr("dimension"), Value: c.Text()})
		case "typedMember":
			ctx.Members = append(ctx.Members, Member{Dimension: c.Attr("dimension"), Value: c.InnerText()})
		}
		for _, child := range c.Children {
			walk(child)
		}
	}
	walk(n)
	return ctx
}

var dateLayouts = []string{"2006-01-02", "January 2, 2006", "Jan. 2, 2006", "Jan 2, 2006", "01/02/2006"}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if len(s) > 10 && s[4] == '-' {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
