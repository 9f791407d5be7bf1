package entity

// Status constants for Bill
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRefused  = "refused"
)

// Bill type constants (expense categories offered by the form)
const (
	TypeTransports     = "Transports"
	TypeRestaurants    = "Restaurants et bars"
	TypeAccommodation  = "Hôtel et logement"
	TypeOnlineServices = "Services en ligne"
	TypeIT             = "IT et électronique"
	TypeEquipment      = "Equipement et matériel"
	TypeOfficeSupplies = "Fournitures de bureau"
)

// Session type constants
const (
	UserTypeEmployee = "Employee"
	UserTypeAdmin    = "Admin"
)

// DefaultPct is applied when the form leaves the VAT percentage blank
const DefaultPct = 20

// DateLayout is the calendar date format bills carry
const DateLayout = "2006-01-02"

// BillTypes lists the accepted expense categories in form order
var BillTypes = []string{
	TypeTransports,
	TypeRestaurants,
	TypeAccommodation,
	TypeOnlineServices,
	TypeIT,
	TypeEquipment,
	TypeOfficeSupplies,
}

var statusLabels = map[string]string{
	StatusPending:  "En attente",
	StatusAccepted: "Accepté",
	StatusRefused:  "Refused",
}

// StatusLabel returns the display label of a bill status.
// Unknown statuses are returned unchanged.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// IsValidStatus reports whether status is one of the bill statuses
func IsValidStatus(status string) bool {
	_, ok := statusLabels[status]
	return ok
}

// IsValidBillType reports whether t is one of the expense categories
func IsValidBillType(t string) bool {
	for _, bt := range BillTypes {
		if bt == t {
			return true
		}
	}
	return false
}
