package model

// Session is the client's view of its authentication state. User being
// set implies Token is set; the reverse can be false transiently while
// the profile load for a freshly stored token is still in flight.
type Session struct {
	Token string
	User  *UserProfile
}

// Authenticated reports whether a token is held.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
