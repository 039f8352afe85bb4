package api

// Mosque is a single record from the daily payload.
type Mosque struct {
	ID             string       `json:"_id" validate:"required"`
	Name           string       `json:"mosque_name" validate:"required"`
	Postcode       string       `json:"postcode,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty" validate:"omitempty"`
	GoogleMapsLink string       `json:"google_maps_link,omitempty"`
	PrayerTimes    PrayerTimes  `json:"prayer_times"`
}

// Coordinates is a WGS84 point. The payload spells longitude "long".
type Coordinates struct {
	Lat  float64 `json:"lat" validate:"latitude"`
	Long float64 `json:"long" validate:"longitude"`
}

// Slot holds the two clock strings of one daily prayer.
// Either field may be null in the payload; the values are not validated here.
type Slot struct {
	Starts *string `json:"starts"` // athan
	Jamat  *string `json:"jamat"`  // congregation
}

// PrayerTimes is one mosque's schedule for a single calendar day.
type PrayerTimes struct {
	Fajr    Slot    `json:"fajr"`
	Dhuhr   Slot    `json:"dhuhr"`
	Asr     Slot    `json:"asr"`
	Maghrib Slot    `json:"maghrib"`
	Isha    Slot    `json:"isha"`
	Jumah1  *string `json:"jumah_1"`
	Jumah2  *string `json:"jumah_2"`
}

// Report is the body of a report submission.
type Report struct {
	Type    string `json:"type"`
	Mosque  string `json:"mosque"`
	Message string `json:"message"`
}

// FindMosque returns the mosque with the given id, or nil.
func FindMosque(ms []Mosque, id string) *Mosque {
	if id == "" {
		return nil
	}
	for i := range ms {
		if ms[i].ID == id {
			return &ms[i]
		}
	}
	return nil
}

// String returns a pointer to s, for building payloads in code and tests.
func String(s string) *string {
	return &s
}
