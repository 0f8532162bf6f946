package refdata

import (
	"fmt"
	"strings"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type carrier struct {
	name            string
	offsetProgramme bool
}

var carriers = map[string]carrier{
	"AA": {"American Airlines", false},
	"DL": {"Delta Air Lines", false},
	"UA": {"United Airlines", false},
	"BA": {"British Airways", true},
	"LH": {"Lufthansa", true},
	"AF": {"Air France", true},
	"KL": {"KLM", true},
	"EK": {"Emirates", false},
	"QR": {"Qatar Airways", false},
	"SQ": {"Singapore Airlines", true},
	"GA": {"Garuda Indonesia", false},
	"JT": {"Lion Air", false},
	"QZ": {"Indonesia AirAsia", false},
	"ID": {"Batik Air", false},
}

var aircraft = map[string]string{
	"319": "Airbus A319",
	"320": "Airbus A320",
	"321": "Airbus A321",
	"32N": "Airbus A320neo",
	"332": "Airbus A330-200",
	"333": "Airbus A330-300",
	"359": "Airbus A350-900",
	"388": "Airbus A380-800",
	"738": "Boeing 737-800",
	"739": "Boeing 737-900",
	"7M8": "Boeing 737 MAX 8",
	"744": "Boeing 747-400",
	"77W": "Boeing 777-300ER",
	"788": "Boeing 787-8",
	"789": "Boeing 787-9",
	"E90": "Embraer 190",
	"AT7": "ATR 72",
}

// Airline resolves a carrier code. name overrides the table when a
// provider ships its own dictionary entry.
func Airline(code, name string) models.Airline {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name != "" {
		return models.Airline{Code: code, Name: name}
	}
	if c, ok := carriers[code]; ok {
		return models.Airline{Code: code, Name: c.name}
	}
	return models.Airline{Code: code, Name: fmt.Sprintf("Airline %s", code)}
}

// HasOffsetProgramme reports whether the carrier runs a recognised carbon
// offset scheme.
func HasOffsetProgramme(code string) bool {
	return carriers[strings.ToUpper(code)].offsetProgramme
}

func Aircraft(code, name string) models.Aircraft {
	code = strings.ToUpper(strings.TrimSpace(code))
	if name != "" {
		return models.Aircraft{Code: code, Name: name}
	}
	if n, ok := aircraft[code]; ok {
		return models.Aircraft{Code: code, Name: n}
	}
	if code == "" {
		code = "Unknown"
	}
	return models.Aircraft{Code: code, Name: "Unknown Aircraft"}
}
