package main

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	notDoneRe     = regexp.MustCompile(`\bnot done\b`)
	isDoneRe      = regexp.MustCompile(`(?:^|\s)is done\b`)
	groupByRe     = regexp.MustCompile(`group by (\w+)`)
	sortByRe      = regexp.MustCompile(`sort by (\w+)`)
	tagFilterRe   = regexp.MustCompile(`(?:^|\s)tag\s+#?([\p{L}\p{N}_]+)`)
	mentionFiltRe = regexp.MustCompile(`(?:^|\s)mention\s+@?([\p{L}\p{N}_]+)`)
	dateFilterRe  = regexp.MustCompile(`(?:^|\s)due\s+((?:today|tomorrow|yesterday|\d{4}-\d{2}-\d{2})(?:\s+or\s+(?:today|tomorrow|yesterday|\d{4}-\d{2}-\d{2}))*|before\s+\S+|after\s+\S+|on\s+\S+(?:\s+or\s+\S+)*)`)
)

// DateFilter represents a due date filter
type DateFilter struct {
	Operator string
	Date     string
	Dates    []string
}

// Query narrows and orders what `list` shows. It never changes task ids.
type Query struct {
	NotDone     bool
	OnlyDone    bool
	Tags        []string // with leading #
	Mentions    []string // with leading @
	DateFilters []DateFilter
	SortBy      string
	GroupBy     string
}

// TaskGroup is one "## name" section of grouped output
type TaskGroup struct {
	Name  string
	Tasks []*Task
}

// parseQuery parses an inline query like "not done tag #home due before tomorrow"
func parseQuery(queryContent string) (*Query, error) {
	query := &Query{}

	query.NotDone = notDoneRe.MatchString(queryContent)
	query.OnlyDone = isDoneRe.MatchString(queryContent)

	if query.NotDone && query.OnlyDone {
		return nil, fmt.Errorf("query %q: \"not done\" and \"is done\" exclude each other", queryContent)
	}

	// "group by tag" and "sort by due" must not read as filters
	filters := groupByRe.ReplaceAllString(sortByRe.ReplaceAllString(queryContent, " "), " ")

	for _, m := range tagFilterRe.FindAllStringSubmatch(filters, -1) {
		query.Tags = append(query.Tags, "#"+m[1])
	}

	for _, m := range mentionFiltRe.FindAllStringSubmatch(filters, -1) {
		query.Mentions = append(query.Mentions, "@"+m[1])
	}

	for _, dm := range dateFilterRe.FindAllStringSubmatch(filters, -1) {
		filter, err := parseDateFilter(dm[1])
		if err != nil {
			return nil, err
		}
		query.DateFilters = append(query.DateFilters, filter)
	}

	if m := sortByRe.FindStringSubmatch(queryContent); m != nil {
		query.SortBy = m[1]
	}

	if m := groupByRe.FindStringSubmatch(queryContent); m != nil {
		query.GroupBy = m[1]
	}

	if err := query.validate(); err != nil {
		return nil, err
	}

	return query, nil
}

// parseDateFilter parses the operand of a due filter such as
// "today or tomorrow", "before 2024-01-01" or "on 2024-03-01".
func parseDateFilter(operand string) (DateFilter, error) {
	operand = strings.TrimSpace(operand)

	var op, date string
	var dates []string

	switch {
	case strings.HasPrefix(operand, "before "):
		op = "before"
		date = strings.TrimSpace(strings.TrimPrefix(operand, "before "))
	case strings.HasPrefix(operand, "after "):
		op = "after"
		date = strings.TrimSpace(strings.TrimPrefix(operand, "after "))
	case strings.HasPrefix(operand, "on "):
		op = "on"
		dates = splitOrDates(strings.TrimSpace(strings.TrimPrefix(operand, "on ")))
	default:
		op = "on"
		dates = splitOrDates(operand)
	}

	if len(dates) == 1 {
		date = dates[0]
		dates = nil
	}

	for _, d := range append([]string{date}, dates...) {
		if d == "" {
			continue
		}
		if _, err := resolveDate(d, time.Now()); err != nil {
			return DateFilter{}, err
		}
	}

	return DateFilter{Operator: op, Date: date, Dates: dates}, nil
}

func (q *Query) validate() error {
	if _, ok := taskOrders[q.SortBy]; !ok && q.SortBy != "" {
		return fmt.Errorf("unknown sort %q (want due, title or status)", q.SortBy)
	}

	switch q.GroupBy {
	case "", "tag", "mention", "status":
	default:
		return fmt.Errorf("unknown grouping %q (want tag, mention or status)", q.GroupBy)
	}

	return nil
}

func splitOrDates(value string) []string {
	parts := strings.Split(value, " or ")

	var dates []string

	for _, part := range parts {
		part = strings.TrimSpace(part)

		if part != "" {
			dates = append(dates, part)
		}
	}
	return dates
}

// startOfDay returns the time truncated to midnight UTC
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// resolveDate converts relative date strings to actual dates
func resolveDate(dateStr string, now time.Time) (time.Time, error) {
	today := startOfDay(now)

	switch dateStr {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	default:
		parsed, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q (use today, tomorrow, yesterday or YYYY-MM-DD)", ErrInvalidDate, dateStr)
		}
		return parsed, nil
	}
}

// matchDateFilter checks if a task matches a date filter
func matchDateFilter(task *Task, filter DateFilter, now time.Time) bool {
	if task.Due == nil {
		return false
	}

	taskDate := startOfDay(*task.Due)

	targets := filter.Dates
	if len(targets) == 0 {
		targets = []string{filter.Date}
	}

	for _, date := range targets {
		target, err := resolveDate(date, now)
		if err != nil {
			continue
		}

		switch filter.Operator {
		case "on":
			if taskDate.Equal(target) {
				return true
			}
		case "before":
			if taskDate.Before(target) {
				return true
			}
		case "after":
			if taskDate.After(target) {
				return true
			}
		}
	}

	return false
}

// matchAllDateFilters checks if a task matches all date filters
func matchAllDateFilters(task *Task, filters []DateFilter, now time.Time) bool {
	for _, filter := range filters {
		if !matchDateFilter(task, filter, now) {
			return false
		}
	}

	return true
}

// matches reports whether task passes every filter of the query
func (q *Query) matches(task *Task, now time.Time) bool {
	switch {
	case q.NotDone && task.Done:
		return false
	case q.OnlyDone && !task.Done:
		return false
	case !containsAll(task.Tags, q.Tags):
		return false
	case !containsAll(task.Mentions, q.Mentions):
		return false
	}

	return matchAllDateFilters(task, q.DateFilters, now)
}

// filterTasks keeps the tasks matching query, in their original order
func filterTasks(tasks []*Task, query *Query, now time.Time) []*Task {
	var kept []*Task

	for _, task := range tasks {
		if query.matches(task, now) {
			kept = append(kept, task)
		}
	}

	return kept
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.ContainsFunc(have, func(h string) bool { return strings.EqualFold(h, w) }) {
			return false
		}
	}
	return true
}

// taskOrders holds the comparators behind "sort by"
var taskOrders = map[string]func(a, b *Task) int{
	"due": func(a, b *Task) int {
		switch {
		case a.Due == nil && b.Due == nil:
			return 0
		case a.Due == nil:
			return 1
		case b.Due == nil:
			return -1
		}
		return a.Due.Compare(*b.Due)
	},
	"title": func(a, b *Task) int {
		return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	},
	"status": func(a, b *Task) int {
		return cmp.Compare(boolRank(a.Done), boolRank(b.Done))
	},
}

// sortTasks returns a sorted copy. Ties keep file order.
func sortTasks(tasks []*Task, sortBy string) []*Task {
	compare, ok := taskOrders[sortBy]
	if !ok {
		return tasks
	}

	sorted := append([]*Task(nil), tasks...)
	slices.SortStableFunc(sorted, compare)
	return sorted
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// groupKeys names the groups a task belongs to
func groupKeys(task *Task, groupBy string) []string {
	switch groupBy {
	case "tag":
		if len(task.Tags) == 0 {
			return []string{"(no tag)"}
		}
		return task.Tags
	case "mention":
		if len(task.Mentions) == 0 {
			return []string{"(no mention)"}
		}
		return task.Mentions
	case "status":
		if task.Done {
			return []string{"done"}
		}
		return []string{"open"}
	}
	return []string{""}
}

// groupTasks splits tasks into groups in order of first appearance and
// sorts each group. A task with several tags shows up in every matching
// group, but only once per group.
func groupTasks(tasks []*Task, groupBy string, sortBy string) []TaskGroup {
	var groups []TaskGroup
	index := make(map[string]int)

	for _, task := range tasks {
		for _, key := range groupKeys(task, groupBy) {
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, TaskGroup{Name: key})
			}

			g := &groups[i]
			if n := len(g.Tasks); n > 0 && g.Tasks[n-1] == task {
				continue
			}
			g.Tasks = append(g.Tasks, task)
		}
	}

	for i := range groups {
		groups[i].Tasks = sortTasks(groups[i].Tasks, sortBy)
	}

	return groups
}
