package model

// Intent is the transaction side a message speaks for.
type Intent string

const (
	IntentBuyer    Intent = "BUYER"
	IntentSeller   Intent = "SELLER"
	IntentLandlord Intent = "LANDLORD"
	IntentTenant   Intent = "TENANT"
)

// Category is the broad property class of a deal.
type Category string

const (
	CategoryResidential   Category = "Residential"
	CategoryCommercial    Category = "Commercial"
	CategoryIndustrial    Category = "Industrial"
	CategoryAgricultural  Category = "Agricultural"
	CategoryInstitutional Category = "Institutional"
)

// Categories lists every category a keyword taxonomy may use.
var Categories = []Category{
	CategoryResidential,
	CategoryCommercial,
	CategoryIndustrial,
	CategoryAgricultural,
	CategoryInstitutional,
}

// Tag is an independent classification marker layered onto a deal.
type Tag string

const (
	TagDirect  Tag = "DIRECT"
	TagCIH     Tag = "CIH"
	TagResale  Tag = "RESALE"
	TagFresh   Tag = "FRESH"
	TagUrgent  Tag = "URGENT"
	TagPremium Tag = "PREMIUM"
)

const (
	ConfidenceHigh = "High"
	ConfidenceLow  = "Low"

	// LocationUnspecified is the display location when nothing was detected.
	LocationUnspecified = "Unspecified"
	// TypeUnknown is the type label when no taxonomy keyword matched.
	TypeUnknown = "Unknown"
	// RoleNewContact marks a phone number the contact directory does not know.
	RoleNewContact = "New Contact"
)
