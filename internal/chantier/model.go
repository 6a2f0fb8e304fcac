// Package chantier manages the client sites a quotation is drawn up for.
package chantier

// Partner is the site owner, a person or a company.
type Partner struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	IsCompany bool   `json:"is_company"`
}

// Chantier is a work site.
type Chantier struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Address      string  `json:"address"`
	Proprietaire Partner `json:"proprietaire"`
	Status       string  `json:"status"`
}
