package models

import "strings"

// RequiredFields is a set of address fields the caller insists on.
type RequiredFields uint8

// RequiredNone asks for nothing.
const RequiredNone RequiredFields = 0

const (
	RequiredStreetAddress RequiredFields = 1 << iota
	RequiredLocality
	RequiredRegion
	RequiredPostalCode
	RequiredCountry

	// RequiredAll asks for every field.
	RequiredAll = RequiredStreetAddress | RequiredLocality | RequiredRegion | RequiredPostalCode | RequiredCountry
)

// Has reports whether every flag in f is present in r.
func (r RequiredFields) Has(f RequiredFields) bool {
	return f != RequiredNone && r&f == f
}

// ParseRequiredFields reads a comma separated list such as "street,postal_code".
// Unknown names are returned as the second value.
func ParseRequiredFields(s string) (RequiredFields, []string) {
	var (
		mask    RequiredFields
		unknown []string
	)
	for _, raw := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "none" {
			continue
		}
		found := false
		for _, f := range addressFields {
			if f.name == name {
				mask |= f.flag
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}

	return mask, unknown
}

// AddressField identifies one askable address part.
type AddressField int

const (
	FieldNone AddressField = iota
	FieldStreetAddress
	FieldLocality
	FieldRegion
	FieldPostalCode
	FieldCountry
)

type addressField struct {
	id   AddressField
	name string
	flag RequiredFields
	get  func(*Address) string
	set  func(*Address, string)
}

// addressFields is ordered by asking priority.
var addressFields = []addressField{
	{
		id: FieldStreetAddress, name: "street", flag: RequiredStreetAddress,
		get: func(a *Address) string { return a.AddressLine },
		set: func(a *Address, v string) { a.AddressLine = v },
	},
	{
		id: FieldLocality, name: "locality", flag: RequiredLocality,
		get: func(a *Address) string { return a.Locality },
		set: func(a *Address, v string) { a.Locality = v },
	},
	{
		id: FieldRegion, name: "region", flag: RequiredRegion,
		get: func(a *Address) string { return a.AdminDistrict },
		set: func(a *Address, v string) { a.AdminDistrict = v },
	},
	{
		id: FieldPostalCode, name: "postal_code", flag: RequiredPostalCode,
		get: func(a *Address) string { return a.PostalCode },
		set: func(a *Address, v string) { a.PostalCode = v },
	},
	{
		id: FieldCountry, name: "country", flag: RequiredCountry,
		get: func(a *Address) string { return a.CountryRegion },
		set: func(a *Address, v string) { a.CountryRegion = v },
	},
}

// String returns the configuration name of the field.
func (f AddressField) String() string {
	if d, ok := lookupField(f); ok {
		return d.name
	}
	return "none"
}

// Get reads the field from the address.
func (f AddressField) Get(a *Address) string {
	d, ok := lookupField(f)
	if !ok || a == nil {
		return ""
	}
	return d.get(a)
}

// Set writes the field into the address. It reports false for FieldNone or a nil address.
func (f AddressField) Set(a *Address, v string) bool {
	d, ok := lookupField(f)
	if !ok || a == nil {
		return false
	}
	d.set(a, v)
	return true
}

func lookupField(f AddressField) (addressField, bool) {
	for _, d := range addressFields {
		if d.id == f {
			return d, true
		}
	}
	return addressField{}, false
}

// NextMissing returns the first field, in priority order, that is required by mask and empty on addr.
func NextMissing(addr *Address, mask RequiredFields) (AddressField, bool) {
	for _, f := range addressFields {
		if !mask.Has(f.flag) {
			continue
		}
		if addr == nil || strings.TrimSpace(f.get(addr)) == "" {
			return f.id, true
		}
	}
	return FieldNone, false
}
