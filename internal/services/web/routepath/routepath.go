// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root                   = "/"
	Login                  = "/login"
	Health                 = "/up"
	Contact                = "/contact"
	StaticPrefix           = "/static/"
	AuthPrefix             = "/auth/"
	AuthLogin              = "/auth/login"
	AuthVerify             = "/auth/verify"
	AuthLogout             = "/auth/logout"
	PasskeyRegisterStart   = "/auth/passkeys/register/start"
	PasskeyRegisterFinish  = "/auth/passkeys/register/finish"
	PasskeyLoginStart      = "/auth/passkeys/login/start"
	PasskeyLoginFinish     = "/auth/passkeys/login/finish"
	OTPSend                = "/auth/otp/send"
	OTPVerify              = "/auth/otp/verify"
	InviteShort            = "/invite"
	InvitePrefix           = "/invite/"
	InvitePattern          = InvitePrefix + "{inviteID}"
	InviteValidatePattern  = InvitePrefix + "{inviteID}/validate"
	InviteContinuePattern  = InvitePrefix + "{inviteID}/continue"
	AppPrefix              = "/app/"
	AppDashboard           = "/app/dashboard"
	DashboardPrefix        = "/app/dashboard/"
	AppDashboardHealth     = "/app/dashboard/health"
	AppSettings            = "/app/settings"
	SettingsPrefix         = "/app/settings/"
	AppInvites             = "/app/invites"
	InvitesPrefix          = "/app/invites/"
	AppInvitesNew          = "/app/invites/new"
	AppInvitePattern       = InvitesPrefix + "{inviteID}"
	OnboardingPrefix       = "/app/onboarding/"
	AppOnboardingStep      = "/app/onboarding/step"
	AppOnboardingComplete  = "/app/onboarding/complete"
	ModalsPrefix           = "/app/modals/"
	AppModalClosePattern   = ModalsPrefix + "{modalID}/close"
	InviteQueryKey         = "i"
	RedirectQueryKey       = "next"
	SettingsNoticeQueryKey = "notice"
	SettingsNoticeSaved    = "saved"
)

// Invite returns the public invite landing route.
func Invite(inviteID string) string {
	return InvitePrefix + escapeSegment(inviteID)
}

// InviteValidate returns the public invite phone-validation route.
func InviteValidate(inviteID string) string {
	return Invite(inviteID) + "/validate"
}

// InviteContinue returns the public invite passkey-registration route.
func InviteContinue(inviteID string) string {
	return Invite(inviteID) + "/continue"
}

// AppInvite returns the invite detail route.
func AppInvite(inviteID string) string {
	return InvitesPrefix + escapeSegment(inviteID)
}

// AppModalClose returns the route that dismisses one modal by id.
func AppModalClose(modalID string) string {
	return ModalsPrefix + escapeSegment(modalID) + "/close"
}

// LoginWithRedirect returns the login route carrying a post-login destination.
func LoginWithRedirect(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, AppPrefix) {
		return AuthLogin
	}
	return AuthLogin + "?" + RedirectQueryKey + "=" + url.QueryEscape(next)
}

// AppSettingsWithNotice returns the settings route with a notice code.
func AppSettingsWithNotice(notice string) string {
	notice = strings.TrimSpace(notice)
	if notice == "" {
		return AppSettings
	}
	return AppSettings + "?" + SettingsNoticeQueryKey + "=" + url.QueryEscape(notice)
}

// AppReturn returns the app page a referer points at, for redirecting after a
// form post. Referers on another host, outside the app, or on the modal and
// onboarding action routes fall back to the dashboard.
func AppReturn(referer string, host string) string {
	parsed, err := url.Parse(strings.TrimSpace(referer))
	if err != nil || (parsed.Host != "" && parsed.Host != host) || !strings.HasPrefix(parsed.Path, AppPrefix) {
		return AppDashboard
	}
	if strings.HasPrefix(parsed.Path, ModalsPrefix) || strings.HasPrefix(parsed.Path, OnboardingPrefix) {
		return AppDashboard
	}
	target := parsed.EscapedPath()
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	return target
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}

// InviteShare returns the short share link for an invite.
func InviteShare(inviteID string) string {
	return InviteShort + "?" + InviteQueryKey + "=" + url.QueryEscape(strings.TrimSpace(inviteID))
}
