package model

import "fmt"

// UserType identifies which kind of entity a credential record belongs to.
type UserType string

const (
	UserTypeMember            UserType = "member"
	UserTypeDistrictPresident UserType = "district_president"
	UserTypeTownPresident     UserType = "town_president"
	UserTypeObserver          UserType = "observer"
)

// AllUserTypes lists every credential consumer type, in display order.
var AllUserTypes = []UserType{
	UserTypeMember,
	UserTypeDistrictPresident,
	UserTypeTownPresident,
	UserTypeObserver,
}

// ParseUserType validates a raw string (typically from a URL path segment)
// against the known user types.
func ParseUserType(raw string) (UserType, error) {
	for _, ut := range AllUserTypes {
		if string(ut) == raw {
			return ut, nil
		}
	}
	return "", fmt.Errorf("unknown user type %q", raw)
}
