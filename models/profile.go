package models

// UserProfile holds the values the user is willing to have proposed into
// forms. Every field is optional; the privacy allow-list in AppSettings
// decides which of them may leave the machine.
type UserProfile struct {
	Person  *PersonProfile  `json:"person,omitempty" yaml:"person,omitempty"`
	Company *CompanyProfile `json:"company,omitempty" yaml:"company,omitempty"`
	Address *AddressProfile `json:"address,omitempty" yaml:"address,omitempty"`
}

type PersonProfile struct {
	FullName   string `json:"fullName,omitempty" yaml:"full_name,omitempty"`
	GivenName  string `json:"givenName,omitempty" yaml:"given_name,omitempty"`
	FamilyName string `json:"familyName,omitempty" yaml:"family_name,omitempty"`
	Email      string `json:"email,omitempty" yaml:"email,omitempty"`
	Tel        string `json:"tel,omitempty" yaml:"tel,omitempty"`
}

type CompanyProfile struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty"`
	Tel        string `json:"tel,omitempty" yaml:"tel,omitempty"`
}

type AddressProfile struct {
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty" yaml:"postal_code,omitempty"`
	Region     string `json:"region,omitempty" yaml:"region,omitempty"`
	Locality   string `json:"locality,omitempty" yaml:"locality,omitempty"`
	Street     string `json:"street,omitempty" yaml:"street,omitempty"`
	Building   string `json:"building,omitempty" yaml:"building,omitempty"`
}

// Allowed returns a copy of the profile containing only the sections named in
// the allow-list ("person", "company", "address"). A nil allow-list permits
// nothing; profiles never leave the machine unless explicitly allowed.
func (p *UserProfile) Allowed(allowed []string) *UserProfile {
	if p == nil || len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	out := &UserProfile{}
	if _, ok := set["person"]; ok {
		out.Person = p.Person
	}
	if _, ok := set["company"]; ok {
		out.Company = p.Company
	}
	if _, ok := set["address"]; ok {
		out.Address = p.Address
	}
	if out.Person == nil && out.Company == nil && out.Address == nil {
		return nil
	}
	return out
}
