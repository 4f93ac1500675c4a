package policy

import "testing"

func samplePolicy() *Policy {
	return &Policy{
		RequestsEnabled: true,
		AllowNotes:      true,
		Defaults: map[string]Mode{
			"ebook":     ModeDownload,
			"audiobook": ModeRequestRelease,
		},
		Rules: []Rule{
			{Source: "*", ContentType: "ebook", Mode: ModeRequestBook},
		},
		SourceModes: []SourceMode{
			{
				Source:                "prowlarr",
				SupportedContentTypes: []string{"ebook"},
				Modes:                 map[string]Mode{"ebook": ModeDownload},
			},
			{
				Source:                "annas-archive",
				SupportedContentTypes: []string{"ebook", "audiobook"},
				Modes: map[string]Mode{
					"ebook":     ModeRequestRelease,
					"audiobook": ModeBlocked,
				},
			},
		},
	}
}

func TestResolveDefaultModeAdminBypass(t *testing.T) {
	p := samplePolicy()
	if got := ResolveDefaultMode(p, true, "audiobook"); got != ModeDownload {
		t.Errorf("admin should bypass restrictions, got %s", got)
	}
}

func TestResolveDefaultModeDisabledPolicy(t *testing.T) {
	p := samplePolicy()
	p.RequestsEnabled = false
	if got := ResolveDefaultMode(p, false, "audiobook"); got != ModeDownload {
		t.Errorf("disabled policy should resolve to download, got %s", got)
	}
}

func TestResolveDefaultModeLookups(t *testing.T) {
	p := samplePolicy()
	cases := []struct {
		contentType string
		want        Mode
	}{
		{"ebook", ModeDownload},
		{"audiobook", ModeRequestRelease},
		{"comic", ModeDownload}, // absent content types default to download
		{" EBOOK ", ModeDownload},
	}
	for _, tc := range cases {
		if got := ResolveDefaultMode(p, false, tc.contentType); got != tc.want {
			t.Errorf("ResolveDefaultMode(%q) = %s, want %s", tc.contentType, got, tc.want)
		}
	}
}

func TestResolveSourceModeExplicitEntry(t *testing.T) {
	p := samplePolicy()
	if got := ResolveSourceMode(p, false, "prowlarr", "ebook"); got != ModeDownload {
		t.Errorf("prowlarr/ebook = %s, want download", got)
	}
	if got := ResolveSourceMode(p, false, "annas-archive", "audiobook"); got != ModeBlocked {
		t.Errorf("annas-archive/audiobook = %s, want blocked", got)
	}
}

func TestResolveSourceModeUnsupportedContentTypeFallsThrough(t *testing.T) {
	p := samplePolicy()
	// prowlarr exists but does not list audiobook, so the audiobook default applies.
	if got := ResolveSourceMode(p, false, "prowlarr", "audiobook"); got != ModeRequestRelease {
		t.Errorf("prowlarr/audiobook = %s, want request_release", got)
	}
}

func TestResolveSourceModeWildcardCapping(t *testing.T) {
	p := samplePolicy()
	// Wildcard rule says request_book for ebooks; the ebook default is
	// download, so the stricter rule mode stands.
	if got := ResolveSourceMode(p, false, "libgen", "ebook"); got != ModeRequestBook {
		t.Errorf("unknown source ebook = %s, want request_book", got)
	}

	// A wildcard rule more permissive than the default is capped at the default.
	p.Defaults["ebook"] = ModeRequestRelease
	p.Rules[0].Mode = ModeDownload
	if got := ResolveSourceMode(p, false, "libgen", "ebook"); got != ModeRequestRelease {
		t.Errorf("permissive wildcard should be capped at request_release, got %s", got)
	}
}

func TestResolveSourceModeNeverMorePermissiveThanDefault(t *testing.T) {
	modes := []Mode{ModeDownload, ModeRequestRelease, ModeRequestBook, ModeBlocked}
	for _, ruleMode := range modes {
		for _, defaultMode := range modes {
			p := &Policy{
				RequestsEnabled: true,
				Defaults:        map[string]Mode{"ebook": defaultMode},
				Rules:           []Rule{{Source: "*", ContentType: "ebook", Mode: ruleMode}},
			}
			got := ResolveSourceMode(p, false, "unknown", "ebook")
			want := ResolveDefaultMode(p, false, "ebook")
			if Restrictiveness(got) < Restrictiveness(want) {
				t.Errorf("rule=%s default=%s: resolved %s is more permissive than default", ruleMode, defaultMode, got)
			}
		}
	}
}

func TestResolveSourceModeNoMatchUsesDefault(t *testing.T) {
	p := samplePolicy()
	if got := ResolveSourceMode(p, false, "libgen", "audiobook"); got != ModeRequestRelease {
		t.Errorf("no source or wildcard match should use default, got %s", got)
	}
}

func TestResolveSourceModeAdminAndDisabled(t *testing.T) {
	p := samplePolicy()
	if got := ResolveSourceMode(p, true, "annas-archive", "audiobook"); got != ModeDownload {
		t.Errorf("admin should bypass blocked source, got %s", got)
	}
	p.RequestsEnabled = false
	if got := ResolveSourceMode(p, false, "annas-archive", "audiobook"); got != ModeDownload {
		t.Errorf("disabled policy should bypass blocked source, got %s", got)
	}
}

func TestResolveNilPolicy(t *testing.T) {
	if got := ResolveDefaultMode(nil, false, "ebook"); got != ModeDownload {
		t.Errorf("nil policy default = %s, want download", got)
	}
	if got := ResolveSourceMode(nil, false, "prowlarr", "ebook"); got != ModeDownload {
		t.Errorf("nil policy source mode = %s, want download", got)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		input string
		want  Mode
		ok    bool
	}{
		{"download", ModeDownload, true},
		{" Request_Release ", ModeRequestRelease, true},
		{"request_book", ModeRequestBook, true},
		{"BLOCKED", ModeBlocked, true},
		{"", "", false},
		{"maybe", "maybe", false},
	}
	for _, tc := range cases {
		got, ok := ParseMode(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseMode(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestCapOrdering(t *testing.T) {
	if got := Cap(ModeDownload, ModeRequestRelease); got != ModeRequestRelease {
		t.Errorf("Cap(download, request_release) = %s", got)
	}
	if got := Cap(ModeBlocked, ModeDownload); got != ModeBlocked {
		t.Errorf("Cap(blocked, download) = %s", got)
	}
	// request_release and request_book share a rank; the rule mode wins.
	if got := Cap(ModeRequestBook, ModeRequestRelease); got != ModeRequestBook {
		t.Errorf("Cap(request_book, request_release) = %s", got)
	}
}
