package dispatch

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"seiza/internal/models"
	"seiza/internal/pkg/errors"
)

const maxNameLen = 50

// Characters that never belong in a name and break overlay rendering
// or file naming downstream.
var forbiddenChars = regexp.MustCompile("[<>\"/\\\\|?*:\\x00-\\x1f]")

// Accepted birthday layouts. The slash layouts also match unpadded
// months and days.
var birthdayLayouts = []string{"2006-01-02", "1/2/2006", "2006/01/02"}

// ParseInput validates a raw submission and returns the normalized
// input stored on the job, with the birthday rewritten as YYYY-MM-DD.
func ParseInput(name, birthday string, now time.Time) (models.JobInput, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.JobInput{}, errors.ValidationField("name", "name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return models.JobInput{}, errors.ValidationField("name", "name must be at most 50 characters")
	}
	if forbiddenChars.MatchString(name) {
		return models.JobInput{}, errors.ValidationField("name", "name contains forbidden characters")
	}

	parsed, err := parseBirthday(strings.TrimSpace(birthday))
	if err != nil {
		return models.JobInput{}, err
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.After(today) {
		return models.JobInput{}, errors.ValidationField("birthday", "birthday must not be in the future")
	}
	if parsed.Year() < 1900 {
		return models.JobInput{}, errors.ValidationField("birthday", "birthday year must be 1900 or later")
	}

	return models.JobInput{
		Name:     name,
		Birthday: parsed.Format("2006-01-02"),
	}, nil
}

func parseBirthday(birthday string) (time.Time, error) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, birthday); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ValidationField("birthday", "birthday must be YYYY-MM-DD, MM/DD/YYYY, or YYYY/MM/DD")
}
