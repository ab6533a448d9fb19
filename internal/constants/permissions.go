package constants

const (
	ViewData         = "view_data"
	ManageHoldings   = "manage_holdings"
	ManageAnyHolding = "manage_any_holding"
)
