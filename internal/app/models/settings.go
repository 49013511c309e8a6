package models

// Settings is the institution profile singleton.
type Settings struct {
	ID              string   `json:"id"`
	InstitutionName string   `json:"institutionName"`
	Address         string   `json:"address"`
	ContactNumber   string   `json:"contactNumber"`
	LogoURL         string   `json:"logoUrl"`
	Branches        []string `json:"branches"`
	Semesters       []string `json:"semesters"`
	Sessions        []string `json:"sessions"`
}

// SettingsList names one of the enumerable lists of Settings.
type SettingsList string

const (
	ListBranches  SettingsList = "branches"
	ListSemesters SettingsList = "semesters"
	ListSessions  SettingsList = "sessions"
)

// Valid reports whether l names a known list.
func (l SettingsList) Valid() bool {
	return l == ListBranches || l == ListSemesters || l == ListSessions
}

// Values returns the current contents of list l.
func (s Settings) Values(l SettingsList) []string {
	switch l {
	case ListBranches:
		return s.Branches
	case ListSemesters:
		return s.Semesters
	case ListSessions:
		return s.Sessions
	}
	return nil
}

// DefaultSession returns the first configured session, or "".
func (s Settings) DefaultSession() string {
	if len(s.Sessions) == 0 {
		return ""
	}
	return s.Sessions[0]
}
