package buildflags

//entityhistory:historical
type User struct {
	ID int64
}
