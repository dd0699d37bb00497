package forecast

import "errors"

var errNonFinite = errors.New("non-finite regression coefficients")
