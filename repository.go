package filebank

// Repository persists the whole ledger as one unit. Implementations must make
// each LoadAll and SaveAll internally consistent under concurrent use; they do
// not serialize read-modify-write sequences spanning several calls.
type Repository interface {
	LoadAll() ([]*Account, error)
	SaveAll(accts []*Account) error
}
