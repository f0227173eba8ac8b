// Package enums holds the domain enumerations shared by pkg/config and
// pkg/model. They are declared here, in a leaf package, so that pkg/model
// can use them without importing pkg/config (which depends on pkg/client
// and, through it, back on pkg/model). pkg/config re-exports every name
// below as an alias, so config.BookingStatus and enums.BookingStatus are
// the same type.
package enums

type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

type BookingStatus string

const (
	Pending   BookingStatus = "pending"
	Confirmed BookingStatus = "confirmed"
	Cancelled BookingStatus = "cancelled"
	Completed BookingStatus = "completed"
	NoShow    BookingStatus = "no_show"
	Refunded  BookingStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentCompleted         PaymentStatus = "completed"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotOccupied    SlotStatus = "occupied"
	SlotReserved    SlotStatus = "reserved"
	SlotMaintenance SlotStatus = "maintenance"
)

type SlotType string

const (
	SlotTypeCar      SlotType = "car"
	SlotTypeBike     SlotType = "bike"
	SlotTypeEV       SlotType = "ev"
	SlotTypeHandicap SlotType = "handicap"
	SlotTypeTruck    SlotType = "truck"
)

type CancelActor string

const (
	CancelledByUser   CancelActor = "user"
	CancelledByOwner  CancelActor = "owner"
	CancelledBySystem CancelActor = "system"
	CancelledByAdmin  CancelActor = "admin"
)
