package model

import (
	"fmt"
	"regexp"
	"strings"
)

// AddressSeparator joins the components of a resource address.
const AddressSeparator = "->"

var addressComponent = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// AddressKind is the depth of a resource address.
type AddressKind string

const (
	AddressKindBase   AddressKind = "base"
	AddressKindTable  AddressKind = "table"
	AddressKindRecord AddressKind = "record"
)

// ResourceAddress points at a base, a table within a base, or a record
// within a table, e.g. "appX->tblY->recZ".
type ResourceAddress struct {
	Kind     AddressKind
	BaseID   string
	TableID  string
	RecordID string
}

// ParseAddress parses a one to three component address. Every component
// must be non-empty and alphanumeric.
func ParseAddress(s string) (ResourceAddress, error) {
	components := strings.Split(s, AddressSeparator)
	if len(components) > 3 {
		return ResourceAddress{}, fmt.Errorf("invalid resource address %q: too many components", s)
	}
	for _, c := range components {
		if !addressComponent.MatchString(c) {
			return ResourceAddress{}, fmt.Errorf("invalid resource address %q: bad component %q", s, c)
		}
	}

	addr := ResourceAddress{Kind: AddressKindBase, BaseID: components[0]}
	if len(components) > 1 {
		addr.Kind = AddressKindTable
		addr.TableID = components[1]
	}
	if len(components) > 2 {
		addr.Kind = AddressKindRecord
		addr.RecordID = components[2]
	}
	return addr, nil
}

func (a ResourceAddress) String() string {
	switch a.Kind {
	case AddressKindRecord:
		return strings.Join([]string{a.BaseID, a.TableID, a.RecordID}, AddressSeparator)
	case AddressKindTable:
		return a.BaseID + AddressSeparator + a.TableID
	default:
		return a.BaseID
	}
}
