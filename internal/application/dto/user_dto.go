package dto

// CreateUserRequest alta de una entrada del directorio (la autenticación vive en otro servicio).
type CreateUserRequest struct {
	ID    string `json:"id"` // uid del proveedor de identidad; vacío genera uno
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"` // admin | worker
}

// UserResponse salida de un usuario del directorio.
type UserResponse struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	AssignedVehicleID *string `json:"assigned_vehicle_id"`
}
