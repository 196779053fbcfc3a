package notify

import (
	"reflect"
	"testing"
)

func TestRouterFallsBackToDefault(t *testing.T) {
	r := Router{Default: []string{"ops@example.com"}}
	got := r.Recipients("shop-web-1", "shop")
	if !reflect.DeepEqual(got, []string{"ops@example.com"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRouterMatchesContainerAndProject(t *testing.T) {
	r := Router{
		Default: []string{"ops@example.com"},
		Routes: []Route{
			{Pattern: "billing", Recipients: []string{"billing@example.com"}},
			{Pattern: "shop", Recipients: []string{"shop@example.com"}},
		},
	}
	if got := r.Recipients("billing-api-1", "payments"); got[0] != "billing@example.com" {
		t.Fatalf("container match failed: %v", got)
	}
	if got := r.Recipients("web-1", "shop"); got[0] != "shop@example.com" {
		t.Fatalf("project match failed: %v", got)
	}
	if got := r.Recipients("db-1", "infra"); got[0] != "ops@example.com" {
		t.Fatalf("expected default fallback: %v", got)
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	r := Router{
		Routes: []Route{
			{Pattern: "web", Recipients: []string{"first@example.com"}},
			{Pattern: "web", Recipients: []string{"second@example.com"}},
		},
	}
	if got := r.Recipients("shop-web-1", ""); got[0] != "first@example.com" {
		t.Fatalf("got %v", got)
	}
}

func TestRouterSkipsEmptyRoutes(t *testing.T) {
	r := Router{
		Default: []string{"ops@example.com"},
		Routes: []Route{
			{Pattern: "", Recipients: []string{"never@example.com"}},
			{Pattern: "web", Recipients: nil},
		},
	}
	if got := r.Recipients("web-1", ""); got[0] != "ops@example.com" {
		t.Fatalf("got %v", got)
	}
}

func TestParseRoutes(t *testing.T) {
	got := ParseRoutes("web:a@x.com, b@y.com;db:dba@x.com")
	want := []Route{
		{Pattern: "web", Recipients: []string{"a@x.com", "b@y.com"}},
		{Pattern: "db", Recipients: []string{"dba@x.com"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseRoutesIgnoresMalformedEntries(t *testing.T) {
	got := ParseRoutes("no-colon;:noname@x.com;empty:; web : c@z.com ")
	if len(got) != 1 {
		t.Fatalf("expected one valid route, got %+v", got)
	}
	if got[0].Pattern != "web" || got[0].Recipients[0] != "c@z.com" {
		t.Fatalf("got %+v", got)
	}
}
