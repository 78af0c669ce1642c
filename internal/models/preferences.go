package models

// PreferenceKey names a per-recipient notification opt-out switch.
type PreferenceKey string

// NoPreference marks a notification type that is always delivered.
const NoPreference PreferenceKey = ""

// Admin preference keys.
const (
	PrefUserSignups      PreferenceKey = "userSignups"
	PrefPaymentAlerts    PreferenceKey = "paymentAlerts"
	PrefNewSubscriptions PreferenceKey = "newSubscriptions"
	PrefReportGeneration PreferenceKey = "reportGeneration"
	PrefLoginAlerts      PreferenceKey = "loginAlerts"
)

// User preference keys.
const (
	PrefRecipeUpdates        PreferenceKey = "recipeUpdates"
	PrefSubscriptionAlerts   PreferenceKey = "subscriptionAlerts"
	PrefAccountAlerts        PreferenceKey = "accountAlerts"
	PrefFeatureAnnouncements PreferenceKey = "featureAnnouncements"
)

// NotificationPreferences holds the stored switches as written by the web
// client. Values are kept loose: only a boolean false disables a key, and
// absent, null or non-boolean values count as enabled.
type NotificationPreferences map[PreferenceKey]interface{}

// Allows reports whether notifications gated by key may be created.
func (p NotificationPreferences) Allows(key PreferenceKey) bool {
	if key == NoPreference || p == nil {
		return true
	}
	enabled, isBool := p[key].(bool)
	return !isBool || enabled
}

// Malformed reports whether key is stored with a value that is not a boolean.
func (p NotificationPreferences) Malformed(key PreferenceKey) bool {
	if key == NoPreference || p == nil {
		return false
	}
	value, set := p[key]
	if !set {
		return false
	}
	_, isBool := value.(bool)
	return !isBool
}

type preferenceEntry struct {
	Type NotificationType
	Key  PreferenceKey
}

// Every type of an audience appears exactly once. A new type must be added
// here with its key (or NoPreference) before the audience accepts it.
var (
	adminPreferenceTable = []preferenceEntry{
		{AdminTypeUser, PrefUserSignups},
		{AdminTypePayment, PrefPaymentAlerts},
		{AdminTypeAlert, NoPreference},
		{AdminTypeSubscription, PrefNewSubscriptions},
		{AdminTypeReport, PrefReportGeneration},
		{AdminTypeReferral, NoPreference},
		{AdminTypeInfo, NoPreference},
		{AdminTypeTest, NoPreference},
	}
	userPreferenceTable = []preferenceEntry{
		{UserTypeRecipe, PrefRecipeUpdates},
		{UserTypePayment, PrefPaymentAlerts},
		{UserTypeSubscription, PrefSubscriptionAlerts},
		{UserTypeAccount, PrefAccountAlerts},
		{UserTypeFeature, PrefFeatureAnnouncements},
		{UserTypeInfo, NoPreference},
		{UserTypeTest, NoPreference},
	}
)

func preferenceTable(a Audience) []preferenceEntry {
	switch a {
	case AudienceAdmin:
		return adminPreferenceTable
	case AudienceUser:
		return userPreferenceTable
	}
	return nil
}

// PreferenceKeyFor returns the switch gating t for the audience. ok is false
// when t is not a type of the audience.
func (a Audience) PreferenceKeyFor(t NotificationType) (key PreferenceKey, ok bool) {
	for _, entry := range preferenceTable(a) {
		if entry.Type == t {
			return entry.Key, true
		}
	}
	return NoPreference, false
}

// PreferenceKeys lists the switches a recipient of the audience can store.
func (a Audience) PreferenceKeys() []PreferenceKey {
	switch a {
	case AudienceAdmin:
		return []PreferenceKey{PrefUserSignups, PrefPaymentAlerts, PrefNewSubscriptions, PrefReportGeneration, PrefLoginAlerts}
	case AudienceUser:
		return []PreferenceKey{PrefRecipeUpdates, PrefPaymentAlerts, PrefSubscriptionAlerts, PrefAccountAlerts, PrefFeatureAnnouncements}
	}
	return nil
}
