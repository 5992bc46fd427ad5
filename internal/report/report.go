// Package report turns raw survey scores into the summaries the admin and
// the user see after completion.
package report

import (
	"fmt"
	"sort"
	"strings"

	"persona-survey-bot/internal/domain"
)

var styleShortNames = map[string]string{
	"Синтетический":   "Синтетик",
	"Идеалистический": "Идеалист",
	"Прагматический":  "Прагматик",
	"Аналитический":   "Аналитик",
	"Реалистический":  "Реалист",
}

// DominantStyle classifies the thinking-styles totals: the top style alone,
// or a hyphenated pair when the runner-up is within 10% of the overall total.
func DominantStyle(scores map[string]int) string {
	if len(scores) < 2 {
		return "Неопределен"
	}

	type entry struct {
		style string
		score int
	}
	sorted := make([]entry, 0, len(scores))
	total := 0
	for style, score := range scores {
		sorted = append(sorted, entry{style, score})
		total += score
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].style < sorted[j].style
	})

	diffPercent := 100.0
	if total > 0 {
		diffPercent = float64(sorted[0].score-sorted[1].score) / float64(total) * 100
	}

	first := ShortStyleName(sorted[0].style)
	if diffPercent < 10 {
		return first + "-" + ShortStyleName(sorted[1].style)
	}
	return first
}

// ShortStyleName maps a full style name to its report form.
func ShortStyleName(style string) string {
	if short, ok := styleShortNames[style]; ok {
		return short
	}
	return style
}

// FormatAdmin renders the plain-text completion report sent to the admin chat.
func FormatAdmin(user domain.UserRecord, res domain.SurveyResult) string {
	var b strings.Builder
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}

	fmt.Fprintf(&b, "Пользователь: %s (id %d)\n", name, user.UserID)
	if user.Age > 0 {
		fmt.Fprintf(&b, "Возраст: %d\n", user.Age)
	}
	fmt.Fprintf(&b, "Тип мышления: %s\n", DominantStyle(styleSubset(res.Scores)))
	fmt.Fprintf(&b, "Темперамент: %s\n", res.Temperament)

	if len(res.Priorities) > 0 {
		b.WriteString("Приоритеты:\n")
		for _, line := range sortedLines(res.Priorities) {
			b.WriteString(line)
		}
	}
	b.WriteString("Баллы:\n")
	for _, line := range sortedLines(res.Scores) {
		b.WriteString(line)
	}
	return b.String()
}

// styleSubset drops the personality scale keys so only thinking styles feed
// the classification.
func styleSubset(scores map[string]int) map[string]int {
	styles := make(map[string]int)
	for key, score := range scores {
		if _, ok := styleShortNames[key]; ok {
			styles[key] = score
		}
	}
	return styles
}

func sortedLines(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %d\n", key, values[key]))
	}
	return lines
}
