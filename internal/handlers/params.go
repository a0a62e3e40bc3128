package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "plp-dashboard/internal/errors"
	"plp-dashboard/internal/services"
)

const dateLayout = "2006-01-02"

// parseFilter extracts the filter parameters from the request query:
// start/end dates, repeated division values, a product search substring, and
// the margin threshold. Absent parameters fall back to inactive predicates
// and the configured default threshold. Range validity is the filter's
// concern, not the parser's.
func parseFilter(r *http.Request, defaults services.Options) (services.FilterSpec, float64, error) {
	q := r.URL.Query()

	var spec services.FilterSpec

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return spec, 0, apperrors.BadRequestWrap(err, fmt.Sprintf("invalid start date %q, want YYYY-MM-DD", v))
		}
		spec.Start = t
	}

	if v := q.Get("end"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return spec, 0, apperrors.BadRequestWrap(err, fmt.Sprintf("invalid end date %q, want YYYY-MM-DD", v))
		}
		spec.End = t
	}

	spec.Divisions = q["division"]
	spec.Search = q.Get("q")

	threshold := defaults.MarginThreshold
	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return spec, 0, apperrors.BadRequestWrap(err, fmt.Sprintf("invalid margin threshold %q", v))
		}
		if f < 0 || f > 100 {
			return spec, 0, apperrors.BadRequest(fmt.Sprintf("margin threshold must be between 0 and 100, got %g", f))
		}
		threshold = f
	}

	return spec, threshold, nil
}
