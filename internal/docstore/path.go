package docstore

import (
	"fmt"
	"strings"

	"admissions-intake/internal/common/errors"
)

// FormsCollection is the per-identity collection holding submission records.
const FormsCollection = "admissions_forms"

// CollectionPath addresses a collection by application id, then "users",
// then identity, then collection name. Every identity owns its own subtree;
// there is no cross-identity path in this design.
type CollectionPath struct {
	AppID      string
	UserID     string
	Collection string
}

// FormsPath returns the submission collection for one identity.
func FormsPath(appID, userID string) CollectionPath {
	return CollectionPath{AppID: appID, UserID: userID, Collection: FormsCollection}
}

// Validate rejects empty or slash-bearing segments. A path that fails here
// would either collapse the hierarchy or escape the identity subtree.
func (p CollectionPath) Validate() error {
	for _, seg := range []string{p.AppID, p.UserID, p.Collection} {
		if seg == "" {
			return errors.NewInvalidCollectionPathError(fmt.Sprintf("empty segment in path %q", p.String()))
		}
		if strings.Contains(seg, "/") {
			return errors.NewInvalidCollectionPathError(fmt.Sprintf("segment %q contains a path separator", seg))
		}
	}
	return nil
}

// String renders the hierarchical path.
func (p CollectionPath) String() string {
	return fmt.Sprintf("apps/%s/users/%s/%s", p.AppID, p.UserID, p.Collection)
}

// indexName flattens the path into a name Elasticsearch accepts: lowercase,
// dot-separated segments, anything outside [a-z0-9._-] replaced.
func indexName(p CollectionPath) string {
	flat := strings.ToLower(fmt.Sprintf("apps.%s.users.%s.%s", p.AppID, p.UserID, p.Collection))
	var b strings.Builder
	for _, r := range flat {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
