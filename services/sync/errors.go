package sync

import "errors"

// ErrNotSignedIn is returned when a refresh is requested without a
// signed-in session. The held plan is left untouched.
var ErrNotSignedIn = errors.New("not signed in")

// UserRetryMessage is the user-facing copy set after the retry budget is
// exhausted.
const UserRetryMessage = "We couldn't refresh your plan. Pull down to try again."
