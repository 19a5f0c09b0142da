package version

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"1.2.3":       "v1.2.3",
		"v1.2.3":      "v1.2.3",
		" 1.2 ":       "v1.2.0",
		"0.1.0-dev":   "v0.1.0-dev",
		"dev-abc123":  "dev-abc123",
		"not a thing": "not a thing",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsPrerelease(t *testing.T) {
	t.Parallel()

	if !IsPrerelease("0.1.0-dev") {
		t.Fatal("IsPrerelease(0.1.0-dev) = false, want true")
	}
	if IsPrerelease("1.0.0") {
		t.Fatal("IsPrerelease(1.0.0) = true, want false")
	}
	if IsPrerelease("garbage") {
		t.Fatal("IsPrerelease(garbage) = true, want false")
	}
}

func TestGetDefault(t *testing.T) {
	if got := Get(); got != "v0.1.0-dev" {
		t.Fatalf("Get() = %q, want %q", got, "v0.1.0-dev")
	}
}
