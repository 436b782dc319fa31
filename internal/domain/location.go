package domain

import (
	"fmt"
	"strings"
)

// LocationKind tags which master-data table a location id refers to
type LocationKind string

const (
	LocationSupplier  LocationKind = "Supplier"
	LocationWarehouse LocationKind = "Warehouse"
	LocationSite      LocationKind = "Site"
)

// LocationKinds lists every kind in declaration order
var LocationKinds = []LocationKind{LocationSupplier, LocationWarehouse, LocationSite}

// ParseLocationKind accepts the canonical names case-insensitively
func ParseLocationKind(s string) (LocationKind, error) {
	for _, kind := range LocationKinds {
		if strings.EqualFold(strings.TrimSpace(s), string(kind)) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLocationKind, s)
}

func (k LocationKind) String() string {
	return string(k)
}

// IsMetered reports whether stock is tracked for the kind. Suppliers are unmetered.
func (k LocationKind) IsMetered() bool {
	return k == LocationWarehouse || k == LocationSite
}

// CanReceive reports whether the kind is a valid movement destination
func (k LocationKind) CanReceive() bool {
	return k.IsMetered()
}

// Location is a reference to a supplier, warehouse or site
type Location struct {
	Kind LocationKind
	ID   int64
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Kind, l.ID)
}
