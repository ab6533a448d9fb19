package constants

const (
	Superadmin = "superadmin"
	Admin      = "admin"
	Manager    = "manager"
	Viewer     = "viewer"
)
