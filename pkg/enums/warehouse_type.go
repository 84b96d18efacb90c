package enums

import "fmt"

// WarehouseType scopes a warehouse to a single project or to the whole organization.
type WarehouseType string

const (
	WarehouseTypeProject      WarehouseType = "PROJECT"
	WarehouseTypeOrganization WarehouseType = "ORGANIZATION"
)

var validWarehouseTypes = []WarehouseType{
	WarehouseTypeProject,
	WarehouseTypeOrganization,
}

func (t WarehouseType) String() string {
	return string(t)
}

func (t WarehouseType) IsValid() bool {
	for _, candidate := range validWarehouseTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseWarehouseType(value string) (WarehouseType, error) {
	for _, candidate := range validWarehouseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warehouse type %q", value)
}
