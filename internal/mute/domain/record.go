package domain

// Persisted key names. These are the external storage contract shared with
// the settings surface; legacy names are still honored on load and removed
// during area migration.
const (
	KeyHiddenUsers      = "hiddenUsers"
	KeyHiddenKeywords   = "hiddenKeywords"
	KeyHiddenSubreddits = "hiddenSubreddits"
	KeyHiddenDomains    = "hiddenDomains"

	KeyLoggingEnabled   = "loggingEnabled"
	KeyFilterUsers      = "filterUsers"
	KeyFilterKeywords   = "filterKeywords"
	KeyFilterSubreddits = "filterSubreddits"
	KeyFilterDomains    = "filterDomains"
	KeyEnableSync       = "enableSync"

	LegacyKeyBlockUsers      = "blockUsers"
	LegacyKeyBlockKeywords   = "blockKeywords"
	LegacyKeyBlockSubreddits = "blockSubreddits"
	LegacyKeyBlockDomains    = "blockDomains"
)

// PrefFallback pairs a current preference key with its legacy equivalent.
// When the current key is absent from storage but the legacy key is present,
// the legacy value is adopted.
type PrefFallback struct {
	Key    string
	Legacy string
}

// PrefFallbacks lists the boolean preference keys that carry a legacy name,
// in resolution order.
func PrefFallbacks() []PrefFallback {
	return []PrefFallback{
		{Key: KeyFilterUsers, Legacy: LegacyKeyBlockUsers},
		{Key: KeyFilterKeywords, Legacy: LegacyKeyBlockKeywords},
		{Key: KeyFilterSubreddits, Legacy: LegacyKeyBlockSubreddits},
		{Key: KeyFilterDomains, Legacy: LegacyKeyBlockDomains},
	}
}

// KnownKeys returns every key this subsystem has ever persisted, current and
// legacy. Area migration removes exactly this set from the inactive area.
func KnownKeys() []string {
	return []string{
		KeyHiddenUsers,
		KeyHiddenKeywords,
		KeyHiddenSubreddits,
		KeyHiddenDomains,
		KeyLoggingEnabled,
		KeyFilterUsers,
		KeyFilterKeywords,
		KeyFilterSubreddits,
		KeyFilterDomains,
		KeyEnableSync,
		LegacyKeyBlockUsers,
		LegacyKeyBlockKeywords,
		LegacyKeyBlockSubreddits,
		LegacyKeyBlockDomains,
	}
}

// Preferences holds the boolean engine switches. Absent values default to
// false, except EnableSync which defaults to true.
type Preferences struct {
	LoggingEnabled   bool
	FilterUsers      bool
	FilterKeywords   bool
	FilterSubreddits bool
	FilterDomains    bool
	EnableSync       bool
}

// DefaultPreferences returns the documented defaults for absent storage.
func DefaultPreferences() Preferences {
	return Preferences{EnableSync: true}
}

// CategoryEnabled reports whether filtering is switched on for a category.
func (p Preferences) CategoryEnabled(c Category) bool {
	switch c {
	case CategoryUser:
		return p.FilterUsers
	case CategoryKeyword:
		return p.FilterKeywords
	case CategorySubreddit:
		return p.FilterSubreddits
	case CategoryDomain:
		return p.FilterDomains
	default:
		return false
	}
}

// Record is the persisted union of the four rule lists and the preferences.
// Lists hold raw ordered entries as stored; normalization happens when the
// rule store loads them.
type Record struct {
	Users      []string
	Keywords   []string
	Subreddits []string
	Domains    []string
	Prefs      Preferences
}

// ListFor returns the stored rule list for a category.
func (r Record) ListFor(c Category) []string {
	switch c {
	case CategoryUser:
		return r.Users
	case CategoryKeyword:
		return r.Keywords
	case CategorySubreddit:
		return r.Subreddits
	case CategoryDomain:
		return r.Domains
	default:
		return nil
	}
}

// EmptyRecord returns a record with no rules and default preferences.
func EmptyRecord() Record {
	return Record{Prefs: DefaultPreferences()}
}
