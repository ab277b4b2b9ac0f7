package brightdata

import (
	"errors"
	"regexp"

	"github.com/adamwoolhether/brightdata/errs"
)

// zoneNameRE restricts zone names to letters, digits, hyphens, and
// underscores.
var zoneNameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateZoneName(zone string) error {
	if zone == "" {
		return errs.NewFieldsError("zone", errors.New("must be a non-empty string"))
	}
	if !zoneNameRE.MatchString(zone) {
		return errs.NewFieldsError("zone", errors.New("can only contain letters, numbers, hyphens, and underscores"))
	}
	return nil
}
