package api

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Sanitize drops records that cannot be addressed or displayed (missing id or
// name, out-of-range coordinates). Schedule fields are left untouched; their
// clock strings are checked at resolution time.
func Sanitize(ms []Mosque) (kept []Mosque, dropped int) {
	kept = make([]Mosque, 0, len(ms))
	for _, m := range ms {
		if err := validate.Struct(m); err != nil {
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}
