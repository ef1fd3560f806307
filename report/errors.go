package report

import "errors"

// ErrSaveFailed wraps every error returned by FileStore.Save.
var ErrSaveFailed = errors.New("save failed")
