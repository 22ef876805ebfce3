package model

// AgendaItem is a normalized conference session.
type AgendaItem struct {
	ID              string  `json:"id" mapstructure:"id"`
	Title           string  `json:"title" mapstructure:"title"`
	Description     string  `json:"description" mapstructure:"description"`
	Date            string  `json:"date" mapstructure:"date"`
	StartTime       string  `json:"start_time" mapstructure:"startTime"`
	EndTime         string  `json:"end_time" mapstructure:"endTime"`
	Location        string  `json:"location" mapstructure:"location"`
	Speaker         string  `json:"speaker" mapstructure:"speaker"`
	SpeakerInfo     string  `json:"speaker_info" mapstructure:"speakerInfo"`
	SessionType     string  `json:"session_type" mapstructure:"sessionType"`
	Tags            []any   `json:"tags" mapstructure:"tags"`
	Capacity        float64 `json:"capacity" mapstructure:"capacity"`
	RegisteredCount float64 `json:"registered_count" mapstructure:"registeredCount"`
	IsMandatory     bool    `json:"is_mandatory" mapstructure:"isMandatory"`
	IsActive        bool    `json:"is_active" mapstructure:"isActive"`
}

// Attendee is a normalized conference attendee.
type Attendee struct {
	ID        string `json:"id" mapstructure:"id"`
	FirstName string `json:"first_name" mapstructure:"firstName"`
	LastName  string `json:"last_name" mapstructure:"lastName"`
	FullName  string `json:"full_name" mapstructure:"fullName"`
	Email     string `json:"email" mapstructure:"email"`
	Title     string `json:"title" mapstructure:"title"`
	Company   string `json:"company" mapstructure:"company"`
	Bio       string `json:"bio" mapstructure:"bio"`
	PhotoURL  string `json:"photo_url" mapstructure:"photoURL"`
	HasSpouse bool   `json:"has_spouse" mapstructure:"hasSpouse"`

	// Confidential fields. These are stripped before any record is
	// persisted to the client-side cache.
	BusinessPhone       string `json:"business_phone,omitempty" mapstructure:"businessPhone"`
	MobilePhone         string `json:"mobile_phone,omitempty" mapstructure:"mobilePhone"`
	CheckInDate         string `json:"check_in_date,omitempty" mapstructure:"checkInDate"`
	CheckOutDate        string `json:"check_out_date,omitempty" mapstructure:"checkOutDate"`
	HotelSelection      string `json:"hotel_selection,omitempty" mapstructure:"hotelSelection"`
	RoomType            string `json:"room_type,omitempty" mapstructure:"roomType"`
	DietaryRequirements string `json:"dietary_requirements,omitempty" mapstructure:"dietaryRequirements"`

	IsCheckedIn bool `json:"is_checked_in" mapstructure:"isCheckedIn"`
}

// DiningOption is a normalized dining or social event.
type DiningOption struct {
	ID          string  `json:"id" mapstructure:"id"`
	Name        string  `json:"name" mapstructure:"name"`
	Description string  `json:"description" mapstructure:"description"`
	Date        string  `json:"date" mapstructure:"date"`
	Time        string  `json:"time" mapstructure:"time"`
	Location    string  `json:"location" mapstructure:"location"`
	Type        string  `json:"type" mapstructure:"type"`
	Price       float64 `json:"price" mapstructure:"price"`
	Capacity    float64 `json:"capacity" mapstructure:"capacity"`
	SeatingType string  `json:"seating_type" mapstructure:"seatingType"`
	MenuOptions []any   `json:"menu_options" mapstructure:"menuOptions"`
	IsActive    bool    `json:"is_active" mapstructure:"isActive"`
}

// Sponsor is a normalized conference sponsor.
type Sponsor struct {
	ID           string  `json:"id" mapstructure:"id"`
	Name         string  `json:"name" mapstructure:"name"`
	Tier         string  `json:"tier" mapstructure:"tier"`
	TierRank     float64 `json:"tier_rank" mapstructure:"tierRank"`
	Description  string  `json:"description" mapstructure:"description"`
	LogoURL      string  `json:"logo_url" mapstructure:"logoURL"`
	WebsiteURL   string  `json:"website_url" mapstructure:"websiteURL"`
	DisplayOrder float64 `json:"display_order" mapstructure:"displayOrder"`
	IsActive     bool    `json:"is_active" mapstructure:"isActive"`
}

// StandardizedCompany is a normalized company profile with confidential
// fields already stripped.
type StandardizedCompany struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Sector      string `json:"sector" mapstructure:"sector"`
	Website     string `json:"website" mapstructure:"website"`
	Logo        string `json:"logo" mapstructure:"logo"`
	Description string `json:"description" mapstructure:"description"`
}
