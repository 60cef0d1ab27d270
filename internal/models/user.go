package models

// User is one row of the proxy user table. Download and Upload are
// maintained by the proxy server; this tool only reads and resets them.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"-" db:"password"`
	Quota    int64  `json:"quota" db:"quota"`
	Download int64  `json:"download" db:"download"`
	Upload   int64  `json:"upload" db:"upload"`
}

// Unlimited reports whether the user has no transfer cap. A zero quota
// blocks all traffic.
func (u *User) Unlimited() bool {
	return u.Quota < 0
}
