package failure

//entityhistory:historical
type Broken struct {
	ID UnknownType
}
