package app

import "hoteldesk/internal/domain"

/********** aggregate registry (single source of truth) **********/

// Singleton is a sub-resource with at most one row per parent id.
type Singleton struct {
	Key    string // response key, e.g. "contact"
	Table  domain.Table
	Fields []Field
}

// Collection is a one-to-many sub-resource appended as a batch.
type Collection struct {
	Key           string // response key, e.g. "categories"
	Table         domain.Table
	Fields        []Field
	Discriminator string // required identifying field per item
	ItemLabel     string // used in rejection messages
	FlatCreate    bool   // create payload may carry one item's fields inline
}

// Owner names the foreign key a parent entity itself carries (rooms and
// events belong to a hotel).
type Owner struct {
	Field string
	Kind  string
}

// Aggregate maps one wizard payload onto a parent table plus its
// sub-resource tables. Every payload field belongs to exactly one entry;
// unrecognized fields are ignored so older servers tolerate newer clients.
type Aggregate struct {
	Key         string // response key and cache key prefix
	Table       domain.Table
	Fields      []Field
	Owner       *Owner
	Singletons  []Singleton
	Collections []Collection
}

var (
	hotelsTable = domain.Table{Name: "hotels", IDCol: "id", Kind: "Hotel"}
	roomsTable  = domain.Table{Name: "rooms", IDCol: "id", Kind: "Room"}
	eventsTable = domain.Table{Name: "events", IDCol: "id", Kind: "Event"}
)

var FnbContact = Singleton{
	Key:   "fnb",
	Table: domain.Table{Name: "fnb_contacts", IDCol: "id", ParentCol: "hotel_id", Kind: "F&B contact"},
	Fields: []Field{
		{"fnb_name", String},
		{"fnb_position", String},
		{"fnb_phone", String},
		{"fnb_email", String},
	},
}

var Hotels = Aggregate{
	Key:   "hotel",
	Table: hotelsTable,
	Fields: []Field{
		{"name", String},
		{"stars", Int},
		{"phone", String},
		{"email", String},
		{"website", String},
		{"description", String},
		{"currency", String},
	},
	Singletons: []Singleton{
		{
			Key:   "contact",
			Table: domain.Table{Name: "hotel_contacts", IDCol: "id", ParentCol: "hotel_id", Kind: "Hotel contact"},
			Fields: []Field{
				{"contact_name", String},
				{"contact_position", String},
				{"contact_phone", String},
				{"contact_email", String},
			},
		},
		{
			Key:   "billing",
			Table: domain.Table{Name: "hotel_billing", IDCol: "id", ParentCol: "hotel_id", Kind: "Hotel billing"},
			Fields: []Field{
				{"billing_address_name", String},
				{"billing_address_street", String},
				{"billing_address_zip", String},
				{"billing_address_city", String},
				{"billing_address_vat", String},
				{"billing_email", String},
			},
		},
		{
			Key:   "parking",
			Table: domain.Table{Name: "hotel_parking", IDCol: "id", ParentCol: "hotel_id", Kind: "Hotel parking"},
			Fields: []Field{
				{"parking_available", Bool},
				{"parking_spaces", Int},
				{"parking_fee", Number},
				{"parking_notes", String},
			},
		},
		{
			Key:   "distances",
			Table: domain.Table{Name: "hotel_distances", IDCol: "id", ParentCol: "hotel_id", Kind: "Hotel distances"},
			Fields: []Field{
				{"distance_airport", Number},
				{"distance_train_station", Number},
				{"distance_city_center", Number},
				{"distance_fair", Number},
			},
		},
		FnbContact,
	},
}

var RoomCategories = Collection{
	Key:           "categories",
	Table:         domain.Table{Name: "room_categories", IDCol: "id", ParentCol: "room_id", Kind: "Room category"},
	Discriminator: "category_name",
	ItemLabel:     "category info object",
	FlatCreate:    true,
	Fields: []Field{
		{"category_name", String},
		{"pms_name", String},
		{"num_rooms", Int},
		{"size_sqm", Number},
		{"bed_type", String},
		{"base_price", Number},
		{"amenities", JSONArray},
	},
}

var Rooms = Aggregate{
	Key:   "room",
	Table: roomsTable,
	Owner: &Owner{Field: "hotel_id", Kind: "Hotel"},
	Fields: []Field{
		{"hotel_id", Int},
		{"name", String},
		{"total_rooms", Int},
		{"single_rooms", Int},
		{"double_rooms", Int},
		{"check_in_time", String},
		{"check_out_time", String},
		{"breakfast_included", Bool},
	},
	Collections: []Collection{RoomCategories},
}

var EventSpaces = Collection{
	Key:           "spaces",
	Table:         domain.Table{Name: "event_spaces", IDCol: "id", ParentCol: "event_id", Kind: "Event space"},
	Discriminator: "name",
	ItemLabel:     "space info object",
	Fields: []Field{
		{"name", String},
		{"size_sqm", Number},
		{"capacity_theater", Int},
		{"capacity_banquet", Int},
		{"daily_rate", Number},
		{"features", JSONArray},
	},
}

var EventEquipment = Collection{
	Key:           "equipment",
	Table:         domain.Table{Name: "event_equipment", IDCol: "id", ParentCol: "event_id", Kind: "Event equipment"},
	Discriminator: "name",
	ItemLabel:     "equipment info object",
	Fields: []Field{
		{"name", String},
		{"quantity", Int},
		{"notes", String},
	},
}

var Events = Aggregate{
	Key:   "event",
	Table: eventsTable,
	Owner: &Owner{Field: "hotel_id", Kind: "Hotel"},
	Fields: []Field{
		{"hotel_id", Int},
		{"name", String},
		{"contact_name", String},
		{"contact_email", String},
		{"contact_phone", String},
	},
	Singletons: []Singleton{
		{
			Key:   "booking",
			Table: domain.Table{Name: "event_booking", IDCol: "id", ParentCol: "event_id", Kind: "Event booking"},
			Fields: []Field{
				{"has_options", Bool},
				{"option_duration", Int},
				{"lead_time_days", Int},
				{"booking_notes", String},
			},
		},
		{
			Key:   "financials",
			Table: domain.Table{Name: "event_financials", IDCol: "id", ParentCol: "event_id", Kind: "Event financials"},
			Fields: []Field{
				{"requires_deposit", Bool},
				{"deposit_rules", String},
				{"payment_methods", JSONArray},
				{"cancellation_policy", String},
				{"commission_rate", Number},
			},
		},
		{
			Key:   "operations",
			Table: domain.Table{Name: "event_operations", IDCol: "id", ParentCol: "event_id", Kind: "Event operations"},
			Fields: []Field{
				{"setup_time", String},
				{"teardown_time", String},
				{"staff_count", Int},
				{"catering_notes", String},
			},
		},
	},
	Collections: []Collection{EventSpaces, EventEquipment},
}
