package exportwin

import "errors"

// ErrNotFound covers wins and tokens the caller may not see, as well as missing ones.
var ErrNotFound = errors.New("export win not found")

const MsgInvalidDate = "Date has wrong format. Use YYYY-MM-DD."
