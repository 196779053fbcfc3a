package notify

import "strings"

// Route maps a substring pattern to a dedicated recipient list. The pattern is
// matched against both the container name and the project label.
type Route struct {
	Pattern    string
	Recipients []string
}

// Router resolves the recipient list for a container, checking project routes
// first and falling back to the default recipients.
type Router struct {
	Default []string
	Routes  []Route
}

func (r Router) Recipients(container, project string) []string {
	for _, rt := range r.Routes {
		if rt.Pattern == "" || len(rt.Recipients) == 0 {
			continue
		}
		if strings.Contains(container, rt.Pattern) || strings.Contains(project, rt.Pattern) {
			return rt.Recipients
		}
	}
	return r.Default
}

// ParseRoutes parses the compact "pattern:a@x,b@y;pattern2:c@z" routing form
// kept for env-file compatibility with older deployments.
func ParseRoutes(s string) []Route {
	var out []Route
	for _, mapping := range strings.Split(s, ";") {
		pattern, emails, ok := strings.Cut(mapping, ":")
		if !ok {
			continue
		}
		var recips []string
		for _, e := range strings.Split(emails, ",") {
			if e = strings.TrimSpace(e); e != "" {
				recips = append(recips, e)
			}
		}
		if p := strings.TrimSpace(pattern); p != "" && len(recips) > 0 {
			out = append(out, Route{Pattern: p, Recipients: recips})
		}
	}
	return out
}
