package records

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Gender values reported by the field app
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// dateLayouts are tried in order when decoding upstream dates
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Date is an optional calendar date from the upstream payload.
// Null, empty and unparseable values all decode to the zero Date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	d.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// numbers and objects are treated as absent
		return nil
	}
	if t, ok := ParseDate(raw); ok {
		d.Time = t
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format("2006-01-02"))
}

// Ptr returns nil for an absent date
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// ParseDate parses any of the upstream date layouts
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Coordinate keeps the raw latitude/longitude text. The field app sends
// strings, older rows carry numbers, some carry garbage.
type Coordinate string

// UnmarshalJSON implements json.Unmarshaler
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Coordinate(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*c = Coordinate(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*c = ""
	return nil
}

// AnimalRecord is one dog tracked through catch, surgery and release
type AnimalRecord struct {
	ID                 int        `json:"id"`
	District           string     `json:"district"`
	ULB                string     `json:"ulb"`
	WardNumber         string     `json:"ward_no"`
	Gender             string     `json:"gender"`
	DateOfCatch        Date       `json:"date_of_caught"`
	SurgeryDate        Date       `json:"surgery_date"`
	RelocationDate     Date       `json:"relocation_date"`
	BeforeSurgeryImage string     `json:"before_surgery_image"`
	AfterSurgeryImage  string     `json:"after_surgery_image"`
	RelocationImage    string     `json:"relocation_image"`
	Latitude           Coordinate `json:"latitude"`
	Longitude          Coordinate `json:"longitude"`
	Status             string     `json:"status"`
	CreatedAt          Date       `json:"created_at"`
	UpdatedAt          Date       `json:"updated_at"`
}

// Sterilized reports whether the post-surgery photo has been uploaded.
// This is the one predicate used for "completed" counts everywhere.
func (r AnimalRecord) Sterilized() bool {
	return strings.TrimSpace(r.AfterSurgeryImage) != ""
}

// Relocated reports whether the dog has any release signal
func (r AnimalRecord) Relocated() bool {
	return !r.RelocationDate.IsZero() || strings.TrimSpace(r.RelocationImage) != ""
}

// Released reports whether the dog was sterilized and then released
func (r AnimalRecord) Released() bool {
	return r.Sterilized() && r.Relocated()
}

// IsMale reports a male record
func (r AnimalRecord) IsMale() bool {
	return strings.EqualFold(strings.TrimSpace(r.Gender), GenderMale)
}

// IsFemale reports a female record
func (r AnimalRecord) IsFemale() bool {
	return strings.EqualFold(strings.TrimSpace(r.Gender), GenderFemale)
}

// DogsResponse is the getAllDogs envelope
type DogsResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Dogs    *[]AnimalRecord `json:"dogs"`
}

// Snapshot is one complete fetch of the record list
type Snapshot struct {
	Version   uint64
	FetchedAt time.Time
	Records   []AnimalRecord
}

// Len returns the number of records, tolerating a nil snapshot
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
