package probe

import "testing"

func TestStatusBad(t *testing.T) {
	cases := map[Status]bool{
		StatusStarting:  true,
		StatusUnhealthy: true,
		StatusHealthy:   false,
		StatusUnknown:   false,
		StatusNotFound:  false,
	}
	for st, want := range cases {
		if got := st.Bad(); got != want {
			t.Fatalf("%s.Bad() = %v, want %v", st, got, want)
		}
	}
}

func TestDeriveProject(t *testing.T) {
	cases := []struct {
		labels map[string]string
		name   string
		want   string
	}{
		{map[string]string{composeProjectLabel: "shop"}, "whatever", "shop"},
		{map[string]string{composeProjectLabel: ""}, "shop-web-1", "shop"},
		{nil, "shop-web-1", "shop"},
		{nil, "standalone", "unknown"},
		{nil, "-leading", "unknown"},
	}
	for _, c := range cases {
		if got := deriveProject(c.labels, c.name); got != c.want {
			t.Fatalf("deriveProject(%v, %q) = %q, want %q", c.labels, c.name, got, c.want)
		}
	}
}
