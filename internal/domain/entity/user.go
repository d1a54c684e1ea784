package entity

// Roles válidos para User.
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User subconjunto del directorio de usuarios que usa el núcleo.
// AssignedVehicleID es consistente en ambos sentidos con Vehicle.UserIDs.
type User struct {
	ID                string
	Email             string
	Name              string
	Role              string
	AssignedVehicleID *string
}
