package export

import "errors"

// ErrUnknownView is returned for view names outside Views().
var ErrUnknownView = errors.New("unknown export view")
