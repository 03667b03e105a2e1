package claim

import "strings"

// CityDefault supplies coarse coordinates and postal code for a record
// synthesized without any geocodable source.
type CityDefault struct {
	Lat        float64
	Lng        float64
	PostalCode string
}

// countryCenter is the geographic centre of metropolitan France, the
// fallback when the city is unknown to the table.
var countryCenter = CityDefault{Lat: 46.603354, Lng: 1.888334}

// cityDefaults maps normalized city names to their centre. Deliberately
// small: it only has to cover the cities users actually type, and the seed
// dataset supplies precise coordinates for everything it knows.
var cityDefaults = map[string]CityDefault{
	"paris":       {Lat: 48.8566, Lng: 2.3522, PostalCode: "75000"},
	"marseille":   {Lat: 43.2965, Lng: 5.3698, PostalCode: "13000"},
	"lyon":        {Lat: 45.764, Lng: 4.8357, PostalCode: "69000"},
	"toulouse":    {Lat: 43.6047, Lng: 1.4442, PostalCode: "31000"},
	"nice":        {Lat: 43.7102, Lng: 7.262, PostalCode: "06000"},
	"nantes":      {Lat: 47.2184, Lng: -1.5536, PostalCode: "44000"},
	"montpellier": {Lat: 43.6108, Lng: 3.8767, PostalCode: "34000"},
	"strasbourg":  {Lat: 48.5734, Lng: 7.7521, PostalCode: "67000"},
	"bordeaux":    {Lat: 44.8378, Lng: -0.5792, PostalCode: "33000"},
	"lille":       {Lat: 50.6292, Lng: 3.0573, PostalCode: "59000"},
	"rennes":      {Lat: 48.1173, Lng: -1.6778, PostalCode: "35000"},
}

// defaultForCity resolves a typed city name to its default position.
func defaultForCity(city string) CityDefault {
	key := strings.ToLower(strings.TrimSpace(city))
	if d, ok := cityDefaults[key]; ok {
		return d
	}
	return countryCenter
}
