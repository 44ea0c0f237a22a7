package ads

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CleanCustomerID strips dashes and validates the result is a ten digit
// account id.
func CleanCustomerID(customerID string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(customerID), "-", "")
	if len(cleaned) != 10 {
		return "", fmt.Errorf("customer id %q must be 10 digits", customerID)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("customer id %q must be 10 digits", customerID)
		}
	}
	return cleaned, nil
}

// ValidateNumericID checks a campaign, ad group, or budget id.
func ValidateNumericID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id is required", kind)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return fmt.Errorf("%s id %q must be numeric", kind, id)
		}
	}
	return nil
}

// ValidateDateRange checks both dates parse and start does not follow end.
func ValidateDateRange(startDate, endDate string) error {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return fmt.Errorf("start date %q must use YYYY-MM-DD", startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return fmt.Errorf("end date %q must use YYYY-MM-DD", endDate)
	}
	if start.After(end) {
		return fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}
	return nil
}

// DefaultDateRange covers the trailing n days ending today.
func DefaultDateRange(now time.Time, days int) (string, string) {
	end := now.UTC()
	start := end.AddDate(0, 0, -days)
	return start.Format(dateLayout), end.Format(dateLayout)
}
