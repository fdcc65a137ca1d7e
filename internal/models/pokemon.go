package models

import "strings"

// Pokemon represents a catalog record
type Pokemon struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	BaseExperience float64 `json:"base_experience"`
	Height         float64 `json:"height"`
	Weight         float64 `json:"weight"`
}

// PokemonFields carries client-supplied record fields. A nil field was not
// present in the request body.
type PokemonFields struct {
	Name           *string  `json:"name"`
	BaseExperience *float64 `json:"base_experience"`
	Height         *float64 `json:"height"`
	Weight         *float64 `json:"weight"`
}

// Empty reports whether no field was supplied
func (f PokemonFields) Empty() bool {
	return f.Name == nil && f.BaseExperience == nil && f.Height == nil && f.Weight == nil
}

// Complete reports whether every field was supplied
func (f PokemonFields) Complete() bool {
	return f.Name != nil && f.BaseExperience != nil && f.Height != nil && f.Weight != nil
}

// BlankName reports whether a name was supplied but is only whitespace
func (f PokemonFields) BlankName() bool {
	return f.Name != nil && strings.TrimSpace(*f.Name) == ""
}

// Pokemon builds a record from complete fields; call Complete first.
func (f PokemonFields) Pokemon() Pokemon {
	return Pokemon{
		Name:           *f.Name,
		BaseExperience: *f.BaseExperience,
		Height:         *f.Height,
		Weight:         *f.Weight,
	}
}
