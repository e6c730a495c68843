package orders

//entityhistory:historical converter=Codec
type Order struct {
	ID     int64
	Status string
}
