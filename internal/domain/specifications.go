package domain

import (
	"encoding/json"
	"strconv"
)

// Specifications is the device attribute bag. Known attributes are typed;
// anything else the client sends is kept in Extra.
type Specifications struct {
	Storage     string
	RAM         string
	Color       string
	IMEI        string
	Accessories []string
	Extra       map[string]any
}

const (
	specKeyStorage     = "storage"
	specKeyRAM         = "ram"
	specKeyColor       = "color"
	specKeyIMEI        = "imei"
	specKeyAccessories = "accessories"
)

// MarshalJSON flattens known attributes and extras into one object.
func (s Specifications) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+5)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Storage != "" {
		out[specKeyStorage] = s.Storage
	}
	if s.RAM != "" {
		out[specKeyRAM] = s.RAM
	}
	if s.Color != "" {
		out[specKeyColor] = s.Color
	}
	if s.IMEI != "" {
		out[specKeyIMEI] = s.IMEI
	}
	if len(s.Accessories) > 0 {
		out[specKeyAccessories] = s.Accessories
	}
	return json.Marshal(out)
}

// UnmarshalJSON is lenient: malformed known attributes are dropped and a
// payload that is not an object reads as empty.
func (s *Specifications) UnmarshalJSON(data []byte) error {
	*s = Specifications{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for key, value := range raw {
		switch key {
		case specKeyStorage:
			s.Storage = scalarString(value)
		case specKeyRAM:
			s.RAM = scalarString(value)
		case specKeyColor:
			s.Color = scalarString(value)
		case specKeyIMEI:
			s.IMEI = scalarString(value)
		case specKeyAccessories:
			var list []string
			if err := json.Unmarshal(value, &list); err == nil {
				s.Accessories = list
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				continue
			}
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra[key] = v
		}
	}
	return nil
}

func scalarString(value json.RawMessage) string {
	var str string
	if err := json.Unmarshal(value, &str); err == nil {
		return str
	}
	var num float64
	if err := json.Unmarshal(value, &num); err == nil {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}
	return ""
}
