package models

// Principal is the caller identity resolved once per request from a verified
// token and a fresh user lookup. It is passed explicitly, never stored globally.
type Principal struct {
	ID      string
	Role    Role
	Country Country
}

// EffectiveCountry treats a missing country as GLOBAL.
func (p Principal) EffectiveCountry() Country {
	if p.Country == "" {
		return CountryGlobal
	}
	return p.Country
}

func PrincipalFromUser(u *User) *Principal {
	return &Principal{ID: u.ID, Role: u.Role, Country: u.Country}
}
