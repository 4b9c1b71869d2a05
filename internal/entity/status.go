package entity

import (
	"encoding/json"
	"fmt"
)

// Status is the terminal classification of one validated invite link.
type Status int

const (
	StatusActive Status = iota
	StatusNoNameFound
	StatusExpired
	StatusNetworkError
	StatusTimeout
	StatusNotWhatsAppLink
	StatusParsingError
)

var statusNames = map[Status]string{
	StatusActive:          "Active",
	StatusNoNameFound:     "NoNameFound",
	StatusExpired:         "Expired",
	StatusNetworkError:    "NetworkError",
	StatusTimeout:         "Timeout",
	StatusNotWhatsAppLink: "NotWhatsAppLink",
	StatusParsingError:    "ParsingError",
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusActive,
		StatusNoNameFound,
		StatusExpired,
		StatusNetworkError,
		StatusTimeout,
		StatusNotWhatsAppLink,
		StatusParsingError,
	}
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Category groups statuses into the failure taxonomy.
type Category string

const (
	CategoryOK        Category = "ok"
	CategoryTransport Category = "transport"
	CategoryContent   Category = "content"
	CategoryPolicy    Category = "policy"
)

func (s Status) Category() Category {
	switch s {
	case StatusActive:
		return CategoryOK
	case StatusNetworkError, StatusTimeout:
		return CategoryTransport
	case StatusNoNameFound, StatusParsingError:
		return CategoryContent
	default:
		return CategoryPolicy
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
