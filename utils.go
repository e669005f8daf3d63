package guardiansos

import (
	"fmt"
	"net/url"
	"strings"
)

// SampleLocation returns the location carried by a location-sample frame.
// Both the flat lat/lng form and the nested location object are accepted.
func (r SocketRequest) SampleLocation() (Location, bool) {
	if r.Lat != nil && r.Lng != nil {
		return Location{Lat: *r.Lat, Lng: *r.Lng}, true
	}
	if r.Location != nil {
		return *r.Location, true
	}
	return Location{}, false
}

func MapLink(loc Location) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%g,%g", loc.Lat, loc.Lng)
}

func TrackingLink(dashboard, owner, guardian string) string {
	u := strings.TrimSuffix(dashboard, "/") + "/guardian/track/" + url.PathEscape(owner)
	if guardian == "" {
		return u
	}
	return u + "?guardian=" + url.QueryEscape(guardian)
}

// SignalChannel is the pub/sub channel carrying incident events of owner.
func SignalChannel(owner string) string {
	return "incident:" + owner
}
