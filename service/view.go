package service

import (
	"sort"
	"time"

	"github.com/ansher/agreementtracker/model"
)

const (
	SelectorAll     = "all"
	SelectorExpired = "expired"

	// UncategorizedType groups agreements without a type
	UncategorizedType = "Uncategorized"
)

// ValidSelector reports whether s is "all", "expired" or a company name
func ValidSelector(s string) bool {
	if s == SelectorAll || s == SelectorExpired {
		return true
	}
	_, ok := model.ParseCompany(s)
	return ok
}

// IsExpired reports whether a definite agreement's end date has passed
func IsExpired(a *model.Agreement, now time.Time) bool {
	days := model.RemainingDays(a, now)
	return days != nil && *days < 0
}

// FilterByCompany returns the agreements matching selector, in input order
func FilterByCompany(agreements []*model.Agreement, selector string, now time.Time) []*model.Agreement {
	if selector == "" || selector == SelectorAll {
		return append([]*model.Agreement(nil), agreements...)
	}
	filtered := make([]*model.Agreement, 0, len(agreements))
	for _, a := range agreements {
		switch {
		case selector == SelectorExpired:
			if IsExpired(a, now) {
				filtered = append(filtered, a)
			}
		case string(a.Company) == selector:
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// TypeGroup holds the agreements sharing one agreement type
type TypeGroup struct {
	Type       string             `json:"type"`
	Agreements []*model.Agreement `json:"-"`
}

// GroupByType partitions agreements by type. Groups are ordered by first
// encounter and keep input order within a group.
func GroupByType(agreements []*model.Agreement) []TypeGroup {
	var groups []TypeGroup
	index := make(map[string]int)
	for _, a := range agreements {
		key := a.AgreementType
		if key == "" {
			key = UncategorizedType
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TypeGroup{Type: key})
		}
		groups[i].Agreements = append(groups[i].Agreements, a)
	}
	return groups
}

// UpcomingExpirations returns agreements expiring within the warning window,
// soonest first
func UpcomingExpirations(agreements []*model.Agreement, now time.Time) []*model.Agreement {
	type entry struct {
		a    *model.Agreement
		days int
	}
	var upcoming []entry
	for _, a := range agreements {
		days := model.RemainingDays(a, now)
		if days != nil && *days >= 0 && *days <= model.WarningDays {
			upcoming = append(upcoming, entry{a, *days})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].days < upcoming[j].days })

	result := make([]*model.Agreement, len(upcoming))
	for i, e := range upcoming {
		result[i] = e.a
	}
	return result
}

// Summary holds the dashboard counters
type Summary struct {
	Total        int                   `json:"total"`
	ByCompany    map[model.Company]int `json:"byCompany"`
	ExpiringSoon int                   `json:"expiringSoon"`
	Expired      int                   `json:"expired"`
}

// Summarize counts the filtered view; per-company and expired counts cover all agreements
func Summarize(all, filtered []*model.Agreement, now time.Time) Summary {
	s := Summary{
		Total:        len(filtered),
		ByCompany:    make(map[model.Company]int, len(model.Companies)),
		ExpiringSoon: len(UpcomingExpirations(filtered, now)),
	}
	for _, c := range model.Companies {
		s.ByCompany[c] = 0
	}
	for _, a := range all {
		s.ByCompany[a.Company]++
		if IsExpired(a, now) {
			s.Expired++
		}
	}
	return s
}

// AgreementView is an agreement as presented to clients, without the PDF
type AgreementView struct {
	Agreement *model.Agreement `json:"agreement"`
	Status    model.Status     `json:"status"`
	DaysLeft  *int             `json:"daysLeft"`
	HasPDF    bool             `json:"hasPdf"`
}

// NewAgreementView evaluates a at now
func NewAgreementView(a *model.Agreement, now time.Time) AgreementView {
	stripped := a.Clone()
	stripped.PDFData = ""
	return AgreementView{
		Agreement: stripped,
		Status:    model.StatusOf(a, now),
		DaysLeft:  model.RemainingDays(a, now),
		HasPDF:    a.HasPDF(),
	}
}

func viewsOf(agreements []*model.Agreement, now time.Time) []AgreementView {
	views := make([]AgreementView, len(agreements))
	for i, a := range agreements {
		views[i] = NewAgreementView(a, now)
	}
	return views
}

// GroupView is a TypeGroup with evaluated members
type GroupView struct {
	Type       string          `json:"type"`
	Agreements []AgreementView `json:"agreements"`
}

// Dashboard is the full derived view for one selector
type Dashboard struct {
	Selector string          `json:"selector"`
	Summary  Summary         `json:"summary"`
	Groups   []GroupView     `json:"groups"`
	Upcoming []AgreementView `json:"upcoming"`
}

// BuildDashboard derives every view of agreements for selector
func BuildDashboard(agreements []*model.Agreement, selector string, now time.Time) Dashboard {
	if selector == "" {
		selector = SelectorAll
	}
	filtered := FilterByCompany(agreements, selector, now)

	groups := GroupByType(filtered)
	groupViews := make([]GroupView, len(groups))
	for i, g := range groups {
		groupViews[i] = GroupView{Type: g.Type, Agreements: viewsOf(g.Agreements, now)}
	}

	return Dashboard{
		Selector: selector,
		Summary:  Summarize(agreements, filtered, now),
		Groups:   groupViews,
		Upcoming: viewsOf(UpcomingExpirations(filtered, now), now),
	}
}
