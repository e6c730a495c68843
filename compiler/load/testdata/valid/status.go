package valid

// Status is marked but is not a struct.
//
//entityhistory:historical
type Status string
