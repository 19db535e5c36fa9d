package resolve

import "strconv"

// Venue maps a user-facing region name to the catalog's venue identifier.
type Venue struct {
	Name string
	ID   int
}

// Venues is the fixed region table, in display order. Several outlying
// islands share one identifier.
var Venues = []Venue{
	{"台北", 101},
	{"新北", 102},
	{"基隆", 103},
	{"桃園", 104},
	{"新竹", 105},
	{"宜蘭", 107},
	{"苗栗", 201},
	{"台中", 202},
	{"彰化", 203},
	{"南投", 204},
	{"雲林", 205},
	{"嘉義", 301},
	{"台南", 303},
	{"高雄", 304},
	{"屏東", 305},
	{"花蓮", 401},
	{"台東", 402},
	{"澎湖", 500},
	{"金門", 500},
	{"馬祖", 500},
}

var venueByName = func() map[string]int {
	m := make(map[string]int, len(Venues))
	for _, v := range Venues {
		m[v.Name] = v.ID
	}
	return m
}()

// VenueFor returns the venue identifier for a region name.
// Unknown names report false.
func VenueFor(name string) (int, bool) {
	id, ok := venueByName[name]
	return id, ok
}

// VenueName returns the first region name for an identifier, or the
// identifier itself when it is not in the table.
func VenueName(id int) string {
	for _, v := range Venues {
		if v.ID == id {
			return v.Name
		}
	}
	return strconv.Itoa(id)
}
