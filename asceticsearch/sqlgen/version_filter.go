package sqlgen

import (
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/searchopts"
)

// VersionFilter renders the version predicate for a set of requested version
// types. Mixing Latest with other versions needs no predicate at all.
// alias, when set, qualifies the columns ("r." gives "r.IsHistory").
func VersionFilter(types searchopts.ResourceVersionType, alias string) string {
	if types == 0 {
		types = searchopts.VersionLatest
	}
	switch types {
	case searchopts.VersionLatest:
		return alias + "IsHistory = 0 AND " + alias + "IsDeleted = 0"
	case searchopts.VersionSoftDeleted:
		return alias + "IsDeleted = 1"
	case searchopts.VersionHistory:
		return alias + "IsHistory = 1"
	case searchopts.VersionHistory | searchopts.VersionSoftDeleted:
		return alias + "IsHistory = 1 AND " + alias + "IsDeleted = 1"
	default:
		return ""
	}
}
