package constants

const (
	Viewer  = "viewer"
	Adviser = "adviser"
	Admin   = "admin"
)

// ValidRoles is the set of allowed values for company_advisor.role.
var ValidRoles = []string{Viewer, Adviser, Admin}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

const (
	ViewCompany         = "view_company"
	ChangeCompany       = "change_company"
	ViewContact         = "view_contact"
	ChangeContact       = "change_contact"
	ViewInteraction     = "view_interaction"
	ChangeInteraction   = "change_interaction"
	ViewInvestment      = "view_investmentproject"
	ChangeInvestment    = "change_investmentproject"
	ViewExportWin       = "view_export_win"
	ChangeExportWin     = "change_export_win"
	ExportWinAdmin      = "export_win_admin"
	ViewDataset         = "view_dataset"
	ExportSearchResults = "export_search_results"
)

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewCompany:         {Viewer, Adviser, Admin},
	ChangeCompany:       {Adviser, Admin},
	ViewContact:         {Viewer, Adviser, Admin},
	ChangeContact:       {Adviser, Admin},
	ViewInteraction:     {Viewer, Adviser, Admin},
	ChangeInteraction:   {Adviser, Admin},
	ViewInvestment:      {Viewer, Adviser, Admin},
	ChangeInvestment:    {Adviser, Admin},
	ViewExportWin:       {Viewer, Adviser, Admin},
	ChangeExportWin:     {Adviser, Admin},
	ExportWinAdmin:      {Admin},
	ViewDataset:         {Admin},
	ExportSearchResults: {Adviser, Admin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
