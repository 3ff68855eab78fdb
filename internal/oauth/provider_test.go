package oauth

import (
	"context"
	"testing"

	"github.com/iliyamo/image-search-api/internal/config"
)

func testRegistry(t *testing.T) Registry {
	t.Helper()
	cfg := config.Config{
		Google:   config.OAuthProvider{ClientID: "gid", ClientSecret: "gsec", CallbackURL: "/cb"},
		GitHub:   config.OAuthProvider{ClientID: "hid", ClientSecret: "hsec", CallbackURL: "/cb"},
		Facebook: config.OAuthProvider{ClientID: "fid", ClientSecret: "fsec", CallbackURL: "/cb"},
	}
	return NewRegistry(cfg)
}

func TestNewRegistry_SkipsUnconfigured(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(config.Config{
		Google: config.OAuthProvider{ClientID: "gid", ClientSecret: "gsec"},
	})
	if _, ok := reg["google"]; !ok {
		t.Fatal("google should be registered")
	}
	if _, ok := reg["github"]; ok {
		t.Fatal("github has no credentials and must not be registered")
	}
	if _, ok := reg["facebook"]; ok {
		t.Fatal("facebook has no credentials and must not be registered")
	}
}

func TestParseGitHubProfile_FallsBackToLogin(t *testing.T) {
	t.Parallel()

	body := []byte(`{"id":42,"login":"octo","name":"","email":null}`)
	p, err := parseGitHubProfile(body)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if p.ID != "42" {
		t.Fatalf("id: got %q want %q", p.ID, "42")
	}
	if p.Name != "octo" {
		t.Fatalf("name: got %q want %q", p.Name, "octo")
	}
	if p.Email != "" {
		t.Fatalf("email: got %q want empty", p.Email)
	}
}

func TestResolveEmail_NormalizesProviderEmail(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	got := reg["google"].ResolveEmail(Profile{ID: "1", Email: "  Jane.Doe@Example.COM "})
	if got != "jane.doe@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveEmail_SyntheticIsDeterministic(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	gh := reg["github"]
	a := gh.ResolveEmail(Profile{ID: "42"})
	b := gh.ResolveEmail(Profile{ID: "42"})
	if a != b {
		t.Fatalf("synthetic email not deterministic: %q vs %q", a, b)
	}
	if a != "github_42@example.com" {
		t.Fatalf("got %q", a)
	}
	// same id on another provider must not collide
	if fb := reg["facebook"].ResolveEmail(Profile{ID: "42"}); fb == a {
		t.Fatalf("synthetic emails collide across providers: %q", fb)
	}
}

func TestDisplayName_Fallback(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	if got := reg["facebook"].DisplayName(Profile{Name: "  "}); got != "facebook" {
		t.Fatalf("got %q", got)
	}
	if got := reg["facebook"].DisplayName(Profile{Name: "Ada"}); got != "Ada" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoryStateStore_SingleUse(t *testing.T) {
	t.Parallel()

	s := NewMemoryStateStore()
	ctx := context.Background()

	state, err := NewState()
	if err != nil {
		t.Fatalf("NewState error: %v", err)
	}
	if err := s.Put(ctx, state); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	ok, err := s.Take(ctx, state)
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if !ok {
		t.Fatal("stored state not accepted")
	}

	ok, err = s.Take(ctx, state)
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if ok {
		t.Fatal("state accepted twice")
	}

	ok, err = s.Take(ctx, "never-stored")
	if err != nil {
		t.Fatalf("Take error: %v", err)
	}
	if ok {
		t.Fatal("unknown state accepted")
	}
}
