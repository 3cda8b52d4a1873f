package models

import "encoding/json"

// Optional tells an absent JSON field apart from an explicit null.
// Set is true whenever the key was present in the payload.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field carries a usable value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UserInput carries the user fields of a create or update request.
type UserInput struct {
	TitleCn         Optional[string]   `json:"titleCn"`
	PersonalRating  Optional[float64]  `json:"personalRating"`
	PlayTime        Optional[string]   `json:"playTime"`
	PlayTimeMinutes Optional[int]      `json:"playTimeMinutes"`
	Review          Optional[string]   `json:"review"`
	StartDate       Optional[string]   `json:"startDate"`
	FinishDate      Optional[string]   `json:"finishDate"`
	Tags            Optional[[]string] `json:"tags"`
	RefreshVNDB     bool               `json:"refreshVNDB"`
}
