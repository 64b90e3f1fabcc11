package domain

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingPending  ListingStatus = "pending"
	ListingSold     ListingStatus = "sold"
	ListingRented   ListingStatus = "rented"
	ListingInactive ListingStatus = "inactive"
)

type LeadStatus string

const (
	LeadNew         LeadStatus = "new"
	LeadContacted   LeadStatus = "contacted"
	LeadNegotiating LeadStatus = "negotiating"
	LeadConverted   LeadStatus = "converted"
	LeadInactive    LeadStatus = "inactive"
)

// Closed reports whether the lead left the funnel and should not be offered listings.
func (s LeadStatus) Closed() bool {
	return s == LeadConverted || s == LeadInactive
}

type LeadKind string

const (
	LeadBuyer    LeadKind = "buyer"
	LeadRenter   LeadKind = "renter"
	LeadSeller   LeadKind = "seller"
	LeadInvestor LeadKind = "investor"
)

// Lead is a CRM customer with budget and search preferences.
type Lead struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Email  string     `json:"email,omitempty" yaml:"email"`
	Phone  string     `json:"phone,omitempty" yaml:"phone"`
	Status LeadStatus `json:"status" yaml:"status"`
	Kind   LeadKind   `json:"kind,omitempty" yaml:"kind"`

	BudgetMin              float64  `json:"budget_min" yaml:"budget_min"`
	BudgetMax              float64  `json:"budget_max" yaml:"budget_max"`
	PreferredRegions       []string `json:"preferred_regions" yaml:"preferred_regions"`
	PreferredPropertyTypes []string `json:"preferred_property_types" yaml:"preferred_property_types"`
	PreferredRoomCounts    []string `json:"preferred_room_counts" yaml:"preferred_room_counts"`

	Notes string `json:"notes,omitempty" yaml:"notes"`
}

// Listing is a property offered for sale or rent.
type Listing struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Price       float64       `json:"price" yaml:"price"`
	Status      ListingStatus `json:"status" yaml:"status"`

	City         string `json:"city" yaml:"city"`
	District     string `json:"district" yaml:"district"`
	PropertyType string `json:"property_type" yaml:"property_type"`
	RoomCount    string `json:"room_count" yaml:"room_count"`

	Elevator       bool `json:"elevator" yaml:"elevator"`
	Parking        bool `json:"parking" yaml:"parking"`
	Balcony        bool `json:"balcony" yaml:"balcony"`
	InComplex      bool `json:"in_complex" yaml:"in_complex"`
	Furnished      bool `json:"furnished" yaml:"furnished"`
	CreditEligible bool `json:"credit_eligible" yaml:"credit_eligible"`
}

type SubScore struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
}

type MatchBreakdown struct {
	Budget       SubScore `json:"budget"`
	Region       SubScore `json:"region"`
	PropertyType SubScore `json:"property_type"`
	RoomCount    SubScore `json:"room_count"`
	Features     SubScore `json:"features"`
}

// MatchResult is the score of one listing against one lead.
type MatchResult struct {
	Listing    Listing        `json:"listing"`
	MatchScore int            `json:"match_score"`
	Breakdown  MatchBreakdown `json:"breakdown"`
}

// LeadMatch is the score of one lead against one listing.
type LeadMatch struct {
	Lead      Lead           `json:"lead"`
	Score     int            `json:"score"`
	Breakdown MatchBreakdown `json:"breakdown"`
}
