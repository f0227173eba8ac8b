package config

import (
	"time"

	"parkly/pkg/config/enums"
)

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "parkly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRedisAddr            = "localhost:6379"
	DefaultAvailabilityCacheTTL = 60 * time.Second

	DefaultPaymentBaseURL        = "https://api.razorpay.com"
	DefaultPaymentRequestTimeout = 10 * time.Second
	DefaultPaymentMaxRetries     = 3

	DefaultCancellationGrace   = 1 * time.Hour
	DefaultNoShowSweepInterval = 5 * time.Minute
	DefaultMaxBookingDays      = 30
	DefaultCurrency            = "INR"

	DefaultFacilitiesBaseURL = "http://localhost:8081"
	DefaultBookingsBaseURL   = "http://localhost:8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)

// The domain enums are declared in pkg/config/enums (a leaf package, so
// pkg/model can share them without creating an import cycle through
// pkg/client) and re-exported here under their original names.

type Weekday = enums.Weekday

const (
	Sunday    = enums.Sunday
	Monday    = enums.Monday
	Tuesday   = enums.Tuesday
	Wednesday = enums.Wednesday
	Thursday  = enums.Thursday
	Friday    = enums.Friday
	Saturday  = enums.Saturday
)

type BookingStatus = enums.BookingStatus

const (
	Pending   = enums.Pending
	Confirmed = enums.Confirmed
	Cancelled = enums.Cancelled
	Completed = enums.Completed
	NoShow    = enums.NoShow
	Refunded  = enums.Refunded
)

type PaymentStatus = enums.PaymentStatus

const (
	PaymentPending           = enums.PaymentPending
	PaymentCompleted         = enums.PaymentCompleted
	PaymentFailed            = enums.PaymentFailed
	PaymentRefunded          = enums.PaymentRefunded
	PaymentPartiallyRefunded = enums.PaymentPartiallyRefunded
)

type SlotStatus = enums.SlotStatus

const (
	SlotAvailable   = enums.SlotAvailable
	SlotOccupied    = enums.SlotOccupied
	SlotReserved    = enums.SlotReserved
	SlotMaintenance = enums.SlotMaintenance
)

type SlotType = enums.SlotType

const (
	SlotTypeCar      = enums.SlotTypeCar
	SlotTypeBike     = enums.SlotTypeBike
	SlotTypeEV       = enums.SlotTypeEV
	SlotTypeHandicap = enums.SlotTypeHandicap
	SlotTypeTruck    = enums.SlotTypeTruck
)

type CancelActor = enums.CancelActor

const (
	CancelledByUser   = enums.CancelledByUser
	CancelledByOwner  = enums.CancelledByOwner
	CancelledBySystem = enums.CancelledBySystem
	CancelledByAdmin  = enums.CancelledByAdmin
)
