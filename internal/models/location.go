package models

import "strings"

// BoundingBox holds the south latitude, west longitude, north latitude and east longitude of an area.
type BoundingBox [4]float64

// Address is the postal part of a location.
type Address struct {
	AddressLine      string `json:"address_line,omitempty"`      // Street line.
	Locality         string `json:"locality,omitempty"`          // City or town.
	AdminDistrict    string `json:"admin_district,omitempty"`    // State or region.
	AdminDistrict2   string `json:"admin_district2,omitempty"`   // County or district.
	PostalCode       string `json:"postal_code,omitempty"`       // Postal code.
	CountryRegion    string `json:"country_region,omitempty"`    // Country.
	FormattedAddress string `json:"formatted_address,omitempty"` // Cached single-line rendering.
}

// Format joins the non-empty address parts with separator.
// When every part is empty the cached formatted address is returned.
func (a *Address) Format(separator string) string {
	if a == nil {
		return ""
	}

	parts := make([]string, 0, len(addressFields))
	for _, f := range addressFields {
		if v := strings.TrimSpace(f.get(a)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return a.FormattedAddress
	}

	return strings.Join(parts, separator)
}

// Location is a candidate or resolved place.
type Location struct {
	EntityType  string       `json:"entity_type,omitempty"`
	Name        string       `json:"name,omitempty"`
	Address     *Address     `json:"address,omitempty"`
	Point       *GeoPoint    `json:"point,omitempty"`
	BoundingBox *BoundingBox `json:"bbox,omitempty"`
	Confidence  string       `json:"confidence,omitempty"`
}

// HasPoint reports whether the location carries coordinates.
func (l *Location) HasPoint() bool {
	return l != nil && l.Point != nil
}

// FormattedAddress renders the address, preferring the provider's own formatting when present.
func (l *Location) FormattedAddress(separator string) string {
	if l == nil || l.Address == nil {
		return ""
	}
	if l.Address.FormattedAddress != "" {
		return l.Address.FormattedAddress
	}

	return l.Address.Format(separator)
}

// Clone returns a deep copy so callers never share the dialog's mutable record.
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}

	out := *l
	if l.Address != nil {
		addr := *l.Address
		out.Address = &addr
	}
	if l.Point != nil {
		p := *l.Point
		out.Point = &p
	}
	if l.BoundingBox != nil {
		b := *l.BoundingBox
		out.BoundingBox = &b
	}

	return &out
}

// Place is the value handed back to the caller once capture completes.
type Place struct {
	Type    string         `json:"type,omitempty"`
	Name    string         `json:"name,omitempty"`
	Address *PostalAddress `json:"address,omitempty"`
	Geo     *Coordinates   `json:"geo,omitempty"`
}

// PostalAddress is the caller-facing address shape.
type PostalAddress struct {
	FormattedAddress string `json:"formatted_address,omitempty"`
	StreetAddress    string `json:"street_address,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Region           string `json:"region,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	Country          string `json:"country,omitempty"`
}

// NewPlace converts a resolved location into a place snapshot.
func NewPlace(loc *Location) *Place {
	if loc == nil {
		return nil
	}

	place := &Place{Type: loc.EntityType, Name: loc.Name}
	if loc.Address != nil {
		place.Address = &PostalAddress{
			FormattedAddress: loc.Address.FormattedAddress,
			StreetAddress:    loc.Address.AddressLine,
			Locality:         loc.Address.Locality,
			Region:           loc.Address.AdminDistrict,
			PostalCode:       loc.Address.PostalCode,
			Country:          loc.Address.CountryRegion,
		}
	}
	if loc.Point != nil {
		coords := loc.Point.Coordinates()
		place.Geo = &coords
	}

	return place
}
