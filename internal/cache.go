package internal

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache holds listings that more than one fetcher needs during a run,
// e.g. the repositories of a project are read by both the repository and
// pull request fetchers.
var Cache = cache.New(120*time.Minute, 0)

// CacheKey joins the parts into a lower-case key such as
// "devops-repositories-contoso-webshop".
func CacheKey(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "-"))
}
