package routepath

import "testing"

func TestTopLevelRouteConstants(t *testing.T) {
	t.Parallel()

	if Root != "/" {
		t.Fatalf("Root = %q", Root)
	}
	if Login != "/login" {
		t.Fatalf("Login = %q", Login)
	}
	if Health != "/up" {
		t.Fatalf("Health = %q", Health)
	}
	if AppDashboard != "/app/dashboard" {
		t.Fatalf("AppDashboard = %q", AppDashboard)
	}
	if DashboardPrefix != "/app/dashboard/" {
		t.Fatalf("DashboardPrefix = %q", DashboardPrefix)
	}
	if SettingsPrefix != "/app/settings/" {
		t.Fatalf("SettingsPrefix = %q", SettingsPrefix)
	}
	if ModalsPrefix != "/app/modals/" {
		t.Fatalf("ModalsPrefix = %q", ModalsPrefix)
	}
}

func TestInviteRouteBuilders(t *testing.T) {
	t.Parallel()

	if got := Invite("inv-1"); got != "/invite/inv-1" {
		t.Fatalf("Invite() = %q", got)
	}
	if got := InviteValidate("inv-1"); got != "/invite/inv-1/validate" {
		t.Fatalf("InviteValidate() = %q", got)
	}
	if got := InviteContinue(" inv-1 "); got != "/invite/inv-1/continue" {
		t.Fatalf("InviteContinue() = %q", got)
	}
	if got := AppInvite("a/b"); got != "/app/invites/a%2Fb" {
		t.Fatalf("AppInvite() = %q", got)
	}
}

func TestAppModalClose(t *testing.T) {
	t.Parallel()

	if got := AppModalClose("onboarding"); got != "/app/modals/onboarding/close" {
		t.Fatalf("AppModalClose() = %q", got)
	}
	if got := AppModalClose("test modal"); got != "/app/modals/test%20modal/close" {
		t.Fatalf("AppModalClose() = %q", got)
	}
}

func TestLoginWithRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		next string
		want string
	}{
		{next: "", want: "/auth/login"},
		{next: "https://evil.example", want: "/auth/login"},
		{next: "/app/settings", want: "/auth/login?next=%2Fapp%2Fsettings"},
	}
	for _, tc := range tests {
		if got := LoginWithRedirect(tc.next); got != tc.want {
			t.Fatalf("LoginWithRedirect(%q) = %q, want %q", tc.next, got, tc.want)
		}
	}
}

func TestAppSettingsWithNotice(t *testing.T) {
	t.Parallel()

	if got := AppSettingsWithNotice(""); got != AppSettings {
		t.Fatalf("AppSettingsWithNotice(empty) = %q", got)
	}
	if got := AppSettingsWithNotice(SettingsNoticeSaved); got != "/app/settings?notice=saved" {
		t.Fatalf("AppSettingsWithNotice(saved) = %q", got)
	}
}

func TestAppReturn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		referer string
		want    string
	}{
		{referer: "", want: AppDashboard},
		{referer: "http://example.com/app/settings?notice=saved", want: "/app/settings?notice=saved"},
		{referer: "/app/invites/new", want: "/app/invites/new"},
		{referer: "http://evil.example/app/settings", want: AppDashboard},
		{referer: "http://example.com/contact", want: AppDashboard},
		{referer: "http://example.com/app/modals/onboarding/close", want: AppDashboard},
		{referer: "http://example.com/app/onboarding/step", want: AppDashboard},
		{referer: "http://example.com/app/%zz", want: AppDashboard},
	}
	for _, tc := range tests {
		if got := AppReturn(tc.referer, "example.com"); got != tc.want {
			t.Fatalf("AppReturn(%q) = %q, want %q", tc.referer, got, tc.want)
		}
	}
}
