//go:build history

package buildflags

//entityhistory:historical
type Account struct {
	ID int64
}
