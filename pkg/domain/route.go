package domain

// Route is the screen a session should land on at startup.
type Route int

const (
	RouteSignUp Route = iota
	RouteCreatePin
	RouteProfile
	RouteHome
)

func (r Route) String() string {
	switch r {
	case RouteSignUp:
		return "sign-up"
	case RouteCreatePin:
		return "create-pin"
	case RouteProfile:
		return "profile"
	case RouteHome:
		return "home"
	}
	return "unknown"
}

// NextRoute picks the landing screen for s. The checks run in a fixed
// priority order: signed-out wins over missing PIN, which wins over an
// incomplete profile. It never mutates s.
func NextRoute(s Session) Route {
	switch {
	case !s.IsAuthenticated:
		return RouteSignUp
	case !s.User.HasMpin:
		return RouteCreatePin
	case !s.User.HasCompletedProfile:
		return RouteProfile
	default:
		return RouteHome
	}
}
