// Package client provides a Go client for property-management-system
// vendor REST APIs (Guesty, Hospitable, OwnerRez, Hostaway).
//
// A Client is bound to one platform and bearer token. It builds request URLs
// against the platform's base URL, issues requests and normalizes the
// vendors' differing response envelopes into a uniform QueryResult.
//
// # Quick Start
//
//	c := client.New(platform.Guesty, token)
//	if !c.TestConnection(ctx) {
//	    // token rejected or vendor unreachable
//	}
//	result, err := c.ExecuteQuery(ctx, "/reservations", map[string]any{"limit": 20})
//
// Use custom configuration:
//
//	c := client.New(platform.Hostaway, token,
//	    client.WithBaseURL("https://staging.example.com/v1"),
//	    client.WithHTTPClient(customHTTPClient),
//	    client.WithRateLimit(5, 10),
//	)
//
// # Response Normalization
//
// Vendors wrap collections differently. ExecuteQuery accepts a bare array,
// a {"data": [...]} or {"results": [...]} envelope (taking the count from a
// numeric "total" or "count" field when present) and a single object, which
// becomes one record. Non-JSON bodies yield an empty result.
//
// Records preserve the vendor's field order so exports mirror the response.
//
// # Errors
//
// Request returns *APIError for non-2xx responses. ExecuteQuery reports every
// failure as *types.QueryError with code API_ERROR:
//
//	var qe *types.QueryError
//	if errors.As(err, &qe) {
//	    fmt.Println(qe.Message, qe.Details)
//	}
package client
