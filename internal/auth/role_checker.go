package auth

import "context"

// StaticRoleChecker grants roles from a fixed allow-list, typically the
// admin.user_ids configuration.
type StaticRoleChecker struct {
	grants map[string]map[string]struct{}
}

func NewStaticRoleChecker(roleMembers map[string][]string) *StaticRoleChecker {
	grants := make(map[string]map[string]struct{}, len(roleMembers))
	for role, ids := range roleMembers {
		members := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
		grants[role] = members
	}
	return &StaticRoleChecker{grants: grants}
}

func (c *StaticRoleChecker) HasRole(_ context.Context, userID string, role string) (bool, error) {
	_, ok := c.grants[role][userID]
	return ok, nil
}
