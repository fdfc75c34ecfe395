package sync

import "time"

// HTTPRequestTimeout is the default timeout for all HTTP requests to external APIs.
const HTTPRequestTimeout = 60 * time.Second

// DefaultRetryBackoff is the fixed wait before the single retry of a transient failure.
const DefaultRetryBackoff = 2 * time.Second

// DefaultPhoneRegion is used to parse phone numbers that carry no country code.
const DefaultPhoneRegion = "US"
