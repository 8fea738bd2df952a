// Package admin contiene DTOs de la superficie de administración.
package admin

// SetStatusRequest es el body de PATCH /admin/users/{id}/status.
// Puntero para distinguir ausente de false.
type SetStatusRequest struct {
	IsActive *bool `json:"isActive"`
}
