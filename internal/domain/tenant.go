package domain

import "time"

// Tenant representa uma loja (merchant) isolada dentro da plataforma SaaS.
// A maior parte dos dados do sistema é escopada pelo TenantID.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`             // Único na plataforma
	Domain    string    `json:"domain,omitempty"` // Domínio customizado (único quando definido)
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
