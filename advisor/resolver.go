package advisor

import (
	"regexp"
	"strings"

	"academic-advisor-go/models"
)

// ResolveCourse returns the first catalog course whose name appears in text as
// a whole word, ignoring case. Catalog order decides between several mentions.
func ResolveCourse(text string, catalog []models.Course) (models.Course, bool) {
	lowered := strings.ToLower(text)
	for _, c := range catalog {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			continue
		}
		if wholeWord(regexp.QuoteMeta(name)).MatchString(lowered) {
			return c, true
		}
	}
	return models.Course{}, false
}
