package geocoding

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

const (
	mapZoom = "15"
	mapSize = "500x280"
)

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func latLon(p models.GeoPoint) string {
	return formatCoord(p.Latitude()) + "," + formatCoord(p.Longitude())
}

// googleStaticMapURL builds a Static Maps API URL with a numbered marker on the location.
// A bounding box, when present, is used to frame the map instead of a fixed zoom.
func googleStaticMapURL(baseURL, apiKey string, loc models.Location, pin int) (string, error) {
	if apiKey == "" {
		return "", ErrUnauthorized
	}
	if loc.Point == nil {
		return "", ErrNoPoint
	}

	query := url.Values{}
	query.Set("size", mapSize)
	query.Set("maptype", "roadmap")
	query.Set("markers", fmt.Sprintf("label:%d|%s", pin, latLon(*loc.Point)))
	if box := loc.BoundingBox; box != nil {
		query.Add("visible", formatCoord(box[0])+","+formatCoord(box[1]))
		query.Add("visible", formatCoord(box[2])+","+formatCoord(box[3]))
	} else {
		query.Set("center", latLon(*loc.Point))
		query.Set("zoom", mapZoom)
	}
	query.Set("key", apiKey)

	return baseURL + "?" + query.Encode(), nil
}

// osmStaticMapURL builds a keyless OpenStreetMap static map URL.
func osmStaticMapURL(baseURL string, loc models.Location, pin int) (string, error) {
	if loc.Point == nil {
		return "", ErrNoPoint
	}

	query := url.Values{}
	query.Set("center", latLon(*loc.Point))
	query.Set("zoom", mapZoom)
	query.Set("size", mapSize)
	query.Set("markers", fmt.Sprintf("%s,lightblue%d", latLon(*loc.Point), pin))

	return baseURL + "?" + query.Encode(), nil
}
