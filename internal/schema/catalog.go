package schema

import "github.com/usestring/pmsinspect-mcp/pkg/types"

func pageParams(extra map[string]types.Parameter) map[string]types.Parameter {
	params := map[string]types.Parameter{
		"limit":  {Type: types.ParamNumber, Description: "Number of results per page", Default: float64(20)},
		"offset": {Type: types.ParamNumber, Description: "Number of results to skip", Default: float64(0)},
	}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

// VendorCatalog returns the endpoint catalog used against live vendor APIs.
func VendorCatalog() types.EndpointSchema {
	return types.EndpointSchema{
		"/properties": {
			Methods:     []string{"GET", "POST"},
			Description: "Manage properties",
			Parameters: pageParams(map[string]types.Parameter{
				"status": {Type: types.ParamEnum, Values: []string{"active", "inactive"}, Description: "Property status"},
			}),
		},
		"/reservations": {
			Methods:     []string{"GET", "POST", "PUT"},
			Description: "Manage reservations",
			Parameters: pageParams(map[string]types.Parameter{
				"status":           {Type: types.ParamEnum, Values: []string{"pending", "confirmed", "cancelled"}, Description: "Reservation status"},
				"check_in_after":   {Type: types.ParamDate, Description: "Filter by check-in date"},
				"check_out_before": {Type: types.ParamDate, Description: "Filter by check-out date"},
			}),
		},
		"/guests": {
			Methods:     []string{"GET", "POST", "PUT"},
			Description: "Manage guests",
			Parameters: pageParams(map[string]types.Parameter{
				"email": {Type: types.ParamString, Description: "Filter by guest email"},
			}),
		},
		"/messages": {
			Methods:     []string{"GET", "POST"},
			Description: "Manage guest messages",
			Parameters: pageParams(map[string]types.Parameter{
				"reservation_id": {Type: types.ParamString, Description: "Filter by reservation ID"},
			}),
		},
		"/pricing": {
			Methods:     []string{"GET", "PUT"},
			Description: "Manage pricing rules",
			Parameters: map[string]types.Parameter{
				"property_id": {Type: types.ParamString, Description: "Property ID", Required: true},
				"start_date":  {Type: types.ParamDate, Description: "Start date for pricing", Required: true},
				"end_date":    {Type: types.ParamDate, Description: "End date for pricing", Required: true},
			},
		},
	}
}

// DemoCatalog returns the endpoint catalog served in mock mode. Its paths
// match the mock data generator's templates.
func DemoCatalog() types.EndpointSchema {
	limit := types.Parameter{Type: types.ParamNumber, Description: "Results per page", Default: float64(20)}
	return types.EndpointSchema{
		"/listings": {
			Methods:     []string{"GET", "POST", "PUT", "DELETE"},
			Description: "Property listings",
			Parameters: map[string]types.Parameter{
				"active":   {Type: types.ParamBoolean, Description: "Filter active listings"},
				"city":     {Type: types.ParamString, Description: "Filter by city"},
				"bedrooms": {Type: types.ParamNumber, Description: "Number of bedrooms"},
				"limit":    limit,
			},
		},
		"/reservations": {
			Methods:     []string{"GET", "POST", "PUT"},
			Description: "Booking reservations",
			Parameters: map[string]types.Parameter{
				"status":   {Type: types.ParamEnum, Values: []string{"confirmed", "pending", "cancelled"}, Description: "Booking status"},
				"checkIn":  {Type: types.ParamDate, Description: "Check-in date"},
				"checkOut": {Type: types.ParamDate, Description: "Check-out date"},
				"guestId":  {Type: types.ParamString, Description: "Guest ID"},
				"limit":    limit,
			},
		},
		"/guests": {
			Methods:     []string{"GET", "POST", "PUT"},
			Description: "Guest management",
			Parameters: map[string]types.Parameter{
				"email": {Type: types.ParamString, Description: "Guest email"},
				"phone": {Type: types.ParamString, Description: "Guest phone"},
				"name":  {Type: types.ParamString, Description: "Guest name"},
				"limit": limit,
			},
		},
		"/calendar": {
			Methods:     []string{"GET", "PUT"},
			Description: "Availability calendar",
			Parameters: map[string]types.Parameter{
				"propertyId": {Type: types.ParamString, Description: "Property ID", Required: true},
				"startDate":  {Type: types.ParamDate, Description: "Start date", Required: true},
				"endDate":    {Type: types.ParamDate, Description: "End date", Required: true},
			},
		},
	}
}
