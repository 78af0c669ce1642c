package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryTypeHasPreferenceDecision(t *testing.T) {
	declared := map[Audience][]NotificationType{
		AudienceAdmin: {AdminTypeUser, AdminTypePayment, AdminTypeAlert, AdminTypeSubscription, AdminTypeReport, AdminTypeReferral, AdminTypeInfo, AdminTypeTest},
		AudienceUser:  {UserTypeRecipe, UserTypePayment, UserTypeSubscription, UserTypeAccount, UserTypeFeature, UserTypeInfo, UserTypeTest},
	}

	for audience, types := range declared {
		assert.ElementsMatch(t, types, audience.Types(), "audience %s", audience)

		known := map[PreferenceKey]bool{NoPreference: true}
		for _, key := range audience.PreferenceKeys() {
			known[key] = true
		}
		for _, typ := range types {
			key, ok := audience.PreferenceKeyFor(typ)
			require.True(t, ok, "%s/%s has no preference decision", audience, typ)
			assert.True(t, known[key], "%s/%s maps to unknown key %q", audience, typ, key)
		}
	}
}

func TestPreferenceTablesHaveNoDuplicates(t *testing.T) {
	for _, audience := range []Audience{AudienceAdmin, AudienceUser} {
		seen := map[NotificationType]bool{}
		for _, typ := range audience.Types() {
			assert.False(t, seen[typ], "%s declared twice for %s", typ, audience)
			seen[typ] = true
		}
	}
}

func TestAdminMapping(t *testing.T) {
	cases := map[NotificationType]PreferenceKey{
		AdminTypeUser:         PrefUserSignups,
		AdminTypePayment:      PrefPaymentAlerts,
		AdminTypeSubscription: PrefNewSubscriptions,
		AdminTypeReport:       PrefReportGeneration,
		AdminTypeAlert:        NoPreference,
		AdminTypeReferral:     NoPreference,
	}
	for typ, want := range cases {
		got, ok := AudienceAdmin.PreferenceKeyFor(typ)
		require.True(t, ok)
		assert.Equal(t, want, got, string(typ))
	}

	_, ok := AudienceAdmin.PreferenceKeyFor(UserTypeRecipe)
	assert.False(t, ok)
	_, ok = AudienceUser.PreferenceKeyFor(AdminTypeReport)
	assert.False(t, ok)
	_, ok = AudienceUser.PreferenceKeyFor(UserTypeFeature)
	assert.True(t, ok)
}

func TestPreferencesAllows(t *testing.T) {
	var unset NotificationPreferences
	assert.True(t, unset.Allows(PrefPaymentAlerts))

	prefs := NotificationPreferences{PrefPaymentAlerts: false, PrefUserSignups: true}
	assert.False(t, prefs.Allows(PrefPaymentAlerts))
	assert.True(t, prefs.Allows(PrefUserSignups))
	assert.True(t, prefs.Allows(PrefReportGeneration))
	assert.True(t, prefs.Allows(NoPreference))
	assert.False(t, prefs.Malformed(PrefPaymentAlerts))
}

func TestPreferencesIgnoreNonBooleanValues(t *testing.T) {
	prefs := NotificationPreferences{
		PrefPaymentAlerts:    nil,
		PrefUserSignups:      "yes",
		PrefReportGeneration: int32(0),
	}

	assert.True(t, prefs.Allows(PrefPaymentAlerts))
	assert.True(t, prefs.Allows(PrefUserSignups))
	assert.True(t, prefs.Allows(PrefReportGeneration))

	assert.True(t, prefs.Malformed(PrefPaymentAlerts))
	assert.True(t, prefs.Malformed(PrefUserSignups))
	assert.False(t, prefs.Malformed(PrefNewSubscriptions))
}

func TestParseAudience(t *testing.T) {
	a, ok := ParseAudience("admin")
	require.True(t, ok)
	assert.Equal(t, "admin_notifications", a.NotificationCollection())
	assert.Equal(t, "admins", a.RecipientCollection())

	_, ok = ParseAudience("guest")
	assert.False(t, ok)
}
